package Models

import (
	"gorm.io/gorm"
)

// User is an operator account. Permission levels gate route groups:
// 1 viewer, 2 employee, 3 manager, 4 admin.
type User struct {
	gorm.Model
	CompanyID  uint   `json:"company_id" gorm:"index;not null"`
	EmployeeID *uint  `json:"employee_id"`
	Name       string `json:"name"`
	Email      string `json:"email" gorm:"uniqueIndex;not null"`
	Password   []byte `json:"-"`
	Permission int    `json:"permission" gorm:"default:1"`
}

func (User) TableName() string {
	return "users"
}
