package Tasks

import (
	"fmt"

	"gorm.io/gorm"

	"Taskforce/Models"
)

// completableFrom lists the statuses an instance or assignment may be
// completed from. REJECTED is included so rejected work can be redone.
var completableFrom = map[string]bool{
	Models.StatusPending:    true,
	Models.StatusInProgress: true,
	Models.StatusRejected:   true,
}

// Complete marks an instance COMPLETED. If the instance carries a target the
// running quantity must have reached it. An optional note is preserved in the
// progress log as a zero-delta event.
func (e *Engine) Complete(companyID, instanceID, actorID uint, note string) (*Models.TaskInstance, error) {
	var completed *Models.TaskInstance
	err := e.DB.Transaction(func(tx *gorm.DB) error {
		instance, err := e.findInstance(tx, companyID, instanceID)
		if err != nil {
			return fmt.Errorf("%w: instance %d", ErrNotFound, instanceID)
		}
		if !completableFrom[instance.Status] {
			return fmt.Errorf("%w: cannot complete instance in status %s", ErrValidation, instance.Status)
		}
		if instance.Target != nil && instance.Quantity < *instance.Target {
			return fmt.Errorf("%w: target not met (%v of %v)", ErrValidation, instance.Quantity, *instance.Target)
		}

		now := e.Now()
		instance.Status = Models.StatusCompleted
		instance.CompletedBy = &actorID
		instance.CompletedAt = &now
		if err := tx.Model(instance).Updates(map[string]interface{}{
			"status":       instance.Status,
			"completed_by": actorID,
			"completed_at": now,
		}).Error; err != nil {
			return err
		}

		if note != "" {
			event := Models.TaskProgressEvent{
				InstanceID: instance.ID,
				Delta:      0,
				Source:     "completion",
				Note:       note,
				OccurredAt: now,
				ActorID:    actorID,
			}
			if err := tx.Create(&event).Error; err != nil {
				return err
			}
		}
		completed = instance
		return nil
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

// Approve moves a COMPLETED instance to APPROVED, records the audit entry and
// clears stale rejection metadata. When the approved instance is an
// individual work item above level 1 with a department, its approved
// siblings are rolled up into the department-level parent in the same
// transaction.
func (e *Engine) Approve(companyID, instanceID, actorID uint) (*Models.TaskInstance, error) {
	var approved *Models.TaskInstance
	err := e.DB.Transaction(func(tx *gorm.DB) error {
		instance, err := e.findInstance(tx, companyID, instanceID)
		if err != nil {
			return fmt.Errorf("%w: instance %d", ErrNotFound, instanceID)
		}
		if instance.Status != Models.StatusCompleted {
			return fmt.Errorf("%w: cannot approve instance in status %s", ErrValidation, instance.Status)
		}

		now := e.Now()
		approval := Models.TaskApproval{
			InstanceID: instance.ID,
			Action:     Models.ApprovalActionApprove,
			ActorID:    actorID,
			ActedAt:    now,
		}
		if err := tx.Create(&approval).Error; err != nil {
			return err
		}

		if err := tx.Model(instance).Updates(map[string]interface{}{
			"status":        Models.StatusApproved,
			"approved_by":   actorID,
			"approved_at":   now,
			"rejected_by":   nil,
			"rejected_at":   nil,
			"reject_reason": "",
		}).Error; err != nil {
			return err
		}
		instance.Status = Models.StatusApproved
		instance.ApprovedBy = &actorID
		instance.ApprovedAt = &now
		instance.RejectedBy = nil
		instance.RejectedAt = nil
		instance.RejectReason = ""

		if instance.Scope == Models.ScopeIndividual && instance.Level > 1 && instance.DepartmentID != nil {
			if err := e.aggregate(tx, instance); err != nil {
				return err
			}
		}
		approved = instance
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

// aggregate recomputes the parent quantity from all currently approved
// siblings at the child's level and overwrites the parent's cached value.
// The parent is looked up by (cycle, department, level+1); it is never
// created here, so a missing parent makes the roll-up a no-op.
func (e *Engine) aggregate(tx *gorm.DB, child *Models.TaskInstance) error {
	var template Models.TaskTemplate
	if err := tx.First(&template, child.TemplateID).Error; err != nil {
		return err
	}

	var siblings []Models.TaskInstance
	err := tx.Where("cycle_id = ? AND department_id = ? AND level = ? AND scope = ? AND status = ?",
		child.CycleID, *child.DepartmentID, child.Level,
		Models.ScopeIndividual, Models.StatusApproved).
		Find(&siblings).Error
	if err != nil {
		return err
	}
	if len(siblings) == 0 {
		return nil
	}

	value := applyAggregation(template.AggregationRule, siblings)

	var parent Models.TaskInstance
	err = tx.Where("cycle_id = ? AND department_id = ? AND level = ? AND scope = ?",
		child.CycleID, *child.DepartmentID, child.Level+1, Models.ScopeDepartment).
		First(&parent).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return err
	}
	return tx.Model(&parent).Update("quantity", value).Error
}

func applyAggregation(rule string, instances []Models.TaskInstance) float64 {
	switch rule {
	case Models.AggregationCount:
		return float64(len(instances))
	case Models.AggregationAverage:
		var sum float64
		for i := range instances {
			sum += instances[i].Quantity
		}
		return sum / float64(len(instances))
	case Models.AggregationMax:
		max := instances[0].Quantity
		for i := range instances {
			if instances[i].Quantity > max {
				max = instances[i].Quantity
			}
		}
		return max
	case Models.AggregationMin:
		min := instances[0].Quantity
		for i := range instances {
			if instances[i].Quantity < min {
				min = instances[i].Quantity
			}
		}
		return min
	default: // SUM
		var sum float64
		for i := range instances {
			sum += instances[i].Quantity
		}
		return sum
	}
}

// Reject moves a COMPLETED instance back to REJECTED with a mandatory reason
// and clears stale approval metadata. The owner can re-complete afterwards.
func (e *Engine) Reject(companyID, instanceID, actorID uint, reason string) (*Models.TaskInstance, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: rejection requires a reason", ErrValidation)
	}

	var rejected *Models.TaskInstance
	err := e.DB.Transaction(func(tx *gorm.DB) error {
		instance, err := e.findInstance(tx, companyID, instanceID)
		if err != nil {
			return fmt.Errorf("%w: instance %d", ErrNotFound, instanceID)
		}
		if instance.Status != Models.StatusCompleted {
			return fmt.Errorf("%w: cannot reject instance in status %s", ErrValidation, instance.Status)
		}

		now := e.Now()
		approval := Models.TaskApproval{
			InstanceID: instance.ID,
			Action:     Models.ApprovalActionReject,
			Reason:     reason,
			ActorID:    actorID,
			ActedAt:    now,
		}
		if err := tx.Create(&approval).Error; err != nil {
			return err
		}

		if err := tx.Model(instance).Updates(map[string]interface{}{
			"status":        Models.StatusRejected,
			"rejected_by":   actorID,
			"rejected_at":   now,
			"reject_reason": reason,
			"approved_by":   nil,
			"approved_at":   nil,
		}).Error; err != nil {
			return err
		}
		instance.Status = Models.StatusRejected
		instance.RejectedBy = &actorID
		instance.RejectedAt = &now
		instance.RejectReason = reason
		instance.ApprovedBy = nil
		instance.ApprovedAt = nil
		rejected = instance
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

// MarkExpired sweeps a closed cycle: every instance still PENDING,
// IN_PROGRESS or REJECTED flips to EXPIRED. Returns the number of instances
// affected; zero if the cycle has not ended yet.
func (e *Engine) MarkExpired(companyID, cycleID uint) (int64, error) {
	cycle, _, err := e.findCycle(e.DB, companyID, cycleID)
	if err != nil {
		return 0, fmt.Errorf("%w: cycle %d", ErrNotFound, cycleID)
	}
	if !e.Now().After(cycle.PeriodEnd) {
		return 0, nil
	}

	res := e.DB.Model(&Models.TaskInstance{}).
		Where("cycle_id = ? AND status IN ?", cycle.ID,
			[]string{Models.StatusPending, Models.StatusInProgress, Models.StatusRejected}).
		Update("status", Models.StatusExpired)
	return res.RowsAffected, res.Error
}

// ListApprovals returns the audit trail for one instance.
func (e *Engine) ListApprovals(companyID, instanceID uint) ([]Models.TaskApproval, error) {
	if _, err := e.findInstance(e.DB, companyID, instanceID); err != nil {
		return nil, fmt.Errorf("%w: instance %d", ErrNotFound, instanceID)
	}
	var approvals []Models.TaskApproval
	err := e.DB.Where("instance_id = ?", instanceID).Order("id ASC").Find(&approvals).Error
	return approvals, err
}
