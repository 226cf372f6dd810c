package domain

import "strings"

// Department is the fixed set of teams a member can belong to.
type Department string

// Known departments.
const (
	DeptDesign      Department = "DESIGN"
	DeptDevelopment Department = "DEVELOPMENT"
	DeptSales       Department = "SALES"
	DeptHR          Department = "HR"
	DeptFinance     Department = "FINANCE"
	DeptPlanning    Department = "PLANNING"
)

// ParseDepartment maps an ASCII department name to its enum value.
// Matching is case-insensitive. Returns false for unknown names.
func ParseDepartment(s string) (Department, bool) {
	switch Department(strings.ToUpper(strings.TrimSpace(s))) {
	case DeptDesign:
		return DeptDesign, true
	case DeptDevelopment:
		return DeptDevelopment, true
	case DeptSales:
		return DeptSales, true
	case DeptHR:
		return DeptHR, true
	case DeptFinance:
		return DeptFinance, true
	case DeptPlanning:
		return DeptPlanning, true
	}
	return "", false
}

// KoreanName returns the team name as users write it ("디자인팀" etc).
func (d Department) KoreanName() string {
	switch d {
	case DeptDesign:
		return "디자인팀"
	case DeptDevelopment:
		return "개발팀"
	case DeptSales:
		return "영업팀"
	case DeptHR:
		return "인사팀"
	case DeptFinance:
		return "재무팀"
	case DeptPlanning:
		return "기획팀"
	}
	return string(d)
}

// Member is a read-only view of a directory member.
// The email address doubles as the principal identifier.
type Member struct {
	Email      string
	Nickname   string
	Department Department
}
