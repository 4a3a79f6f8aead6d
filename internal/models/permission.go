package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Module identifies a functional area that family permissions are scoped to.
type Module string

const (
	ModuleDashboard    Module = "dashboard"
	ModuleTransactions Module = "transactions"
	ModuleAccounts     Module = "accounts"
	ModuleCategories   Module = "categories"
	ModulePlanning     Module = "planning"
	ModuleGoals        Module = "goals"
	ModuleBills        Module = "bills"
	ModuleTransfers    Module = "transfers"
	ModuleCalendar     Module = "calendar"
	ModuleInvestments  Module = "investments"
	ModuleReceipts     Module = "receipts"
	ModuleReports      Module = "reports"
	ModuleWorkspaces   Module = "workspaces"
	ModuleAI           Module = "ai"
	ModuleInsights     Module = "insights"
	ModuleOpenBanking  Module = "open_banking"
	ModuleEducation    Module = "education"
	ModuleGamification Module = "gamification"
	ModuleFamily       Module = "family"
	ModuleSettings     Module = "settings"
)

// Modules lists every module permissions can be granted for.
var Modules = []Module{
	ModuleDashboard, ModuleTransactions, ModuleAccounts, ModuleCategories,
	ModulePlanning, ModuleGoals, ModuleBills, ModuleTransfers, ModuleCalendar,
	ModuleInvestments, ModuleReceipts, ModuleReports, ModuleWorkspaces,
	ModuleAI, ModuleInsights, ModuleOpenBanking, ModuleEducation,
	ModuleGamification, ModuleFamily, ModuleSettings,
}

// ParseModule parses a canonical lower-case module identifier.
func ParseModule(s string) (Module, error) {
	for _, m := range Modules {
		if Module(s) == m {
			return m, nil
		}
	}
	return "", ErrInvalidEnumValue
}

// ModulePermission grants per-module capabilities to a family member.
//
// Family owners implicitly have every bit set, even without rows.
type ModulePermission struct {
	DefaultModel
	FamilyMemberID uuid.UUID    `gorm:"uniqueIndex:module_permission_member_module"`
	FamilyMember   FamilyMember `json:"-"`
	Module         Module       `gorm:"uniqueIndex:module_permission_member_module"`
	CanView        bool
	CanEdit        bool
	CanDelete      bool
}

func (p *ModulePermission) BeforeSave(_ *gorm.DB) error {
	_, err := ParseModule(string(p.Module))
	return err
}
