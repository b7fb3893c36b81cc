package constants

const (
	ViewReports       = "view_reports"
	ManageCooperative = "manage_cooperative"
	ManageProjects    = "manage_projects"
	ManageBoard       = "manage_board"
)
