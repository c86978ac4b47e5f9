package nearcadedto

type AttendanceResponse struct {
	Games      []AttendanceGame `json:"games"`
	Registered []Registered     `json:"registered"`
	// Reported is most-recent-first.
	Reported []Reported `json:"reported"`
	Success  bool       `json:"success"`
	Total    int        `json:"total"`
}

type AttendanceGame struct {
	GameID  int64  `json:"gameId"`
	Name    string `json:"name"`
	TitleID int64  `json:"titleId"`
	Total   int    `json:"total"`
	Version string `json:"version"`
}

type Registered struct {
	AttendedAt     string `json:"attendedAt"`
	GameID         int64  `json:"gameId"`
	PlannedLeaveAt string `json:"plannedLeaveAt"`
	User           *User  `json:"user,omitempty"`
	UserID         string `json:"userId,omitempty"`
}

type Reported struct {
	CurrentAttendances int    `json:"currentAttendances"`
	GameID             int64  `json:"gameId"`
	ReportedAt         string `json:"reportedAt"`
	ReportedBy         string `json:"reportedBy"`
	Reporter           *User  `json:"reporter,omitempty"`
}

// AttendanceReportRequest is the body of POST /shops/{source}/{id}/attendance.
type AttendanceReportRequest struct {
	Games   []ReportedGame `json:"games"`
	Comment string         `json:"comment"`
}

type ReportedGame struct {
	ID                 int64 `json:"id"`
	CurrentAttendances int   `json:"currentAttendances"`
}

type AttendanceReportResponse struct {
	Success bool `json:"success"`
}
