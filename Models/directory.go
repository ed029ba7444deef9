package Models

import (
	"gorm.io/gorm"
)

// Department groups employees under one company.
// Active carries no schema default: GORM drops zero-value fields that have
// one, which would make it impossible to create an inactive record.
type Department struct {
	gorm.Model
	CompanyID uint   `json:"company_id" gorm:"index;not null"`
	Name      string `json:"name" gorm:"not null"`
	Active    bool   `json:"active"`

	Employees []Employee `json:"employees,omitempty" gorm:"foreignKey:DepartmentID"`
}

func (Department) TableName() string {
	return "departments"
}

// Employee is a directory record; work items reference it by id.
type Employee struct {
	gorm.Model
	CompanyID    uint   `json:"company_id" gorm:"index;not null"`
	DepartmentID uint   `json:"department_id" gorm:"index;not null"`
	Name         string `json:"name" gorm:"not null"`
	Email        string `json:"email"`
	Active       bool   `json:"active"`
}

func (Employee) TableName() string {
	return "employees"
}
