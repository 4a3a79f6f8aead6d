package models

// Registry is a slice of all models available.
//
// It is maintained so that operations that affect all models, like
// migration, do not need to explicitly iterate over every single model,
// reducing the risk of forgetting something when adding a new model.
var Registry = []any{
	&User{},
	&Family{},
	&FamilyMember{},
	&FamilyInvite{},
	&ModulePermission{},
	&Workspace{},
	&WorkspaceMember{},
	&Account{},
	&Category{},
	&Transaction{},
	&Bill{},
	&Transfer{},
	&Goal{},
	&GoalContribution{},
	&Planning{},
	&MonthlyPlanning{},
	&WeeklyPlanning{},
	&DailyPlanning{},
	&AnnualPlanning{},
	&QuarterlyGoal{},
	&ScheduledTransaction{},
	&TransactionExecution{},
	&CalendarEvent{},
	&Notification{},
	&PointsActivity{},
}
