package service

import "github.com/finops/budget-approval/internal/domain/entity"

// Operation names a workflow operation for authorization checks
type Operation string

const (
	OpCreateBudget   Operation = "create_budget"
	OpArchiveBudget  Operation = "archive_budget"
	OpSubmitRequest  Operation = "submit_request"
	OpEditRequest    Operation = "edit_request"
	OpApproveRequest Operation = "approve_request"
	OpRejectRequest  Operation = "reject_request"
	OpRevertRequest  Operation = "revert_request"
	OpRecordExpense  Operation = "record_expense"
	OpStopExpenses   Operation = "stop_expenses"
	OpViewReports    Operation = "view_reports"
)

// permittedOps is the single source of truth for which role may perform
// which operation. Reads are open to every role and are not gated here.
var permittedOps = map[entity.Role]map[Operation]bool{
	entity.RoleFinance: {
		OpCreateBudget:  true,
		OpArchiveBudget: true,
		OpViewReports:   true,
	},
	entity.RoleHOD: {
		OpApproveRequest: true,
		OpRejectRequest:  true,
		OpRevertRequest:  true,
		OpEditRequest:    true,
		OpViewReports:    true,
	},
	entity.RoleClerk: {
		OpSubmitRequest: true,
		OpEditRequest:   true,
		OpRecordExpense: true,
		OpStopExpenses:  true,
	},
}

// CanPerform decides whether the actor may perform the operation against an
// entity in the given department. Clerks and heads of department act only
// within their own department; finance acts across all. Called once at the
// top of every workflow operation.
func CanPerform(actor *entity.Actor, op Operation, departmentID string) error {
	if actor == nil || !actor.Role.IsValid() {
		return &AuthorizationError{Operation: op}
	}

	if !permittedOps[actor.Role][op] {
		return &AuthorizationError{Role: actor.Role, Operation: op}
	}

	if !actor.ActsAcrossDepartments() && departmentID != "" && actor.Department != departmentID {
		return &AuthorizationError{Role: actor.Role, Operation: op}
	}

	return nil
}
