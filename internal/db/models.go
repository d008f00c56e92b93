package db

type ManualAttendance struct {
	ID         string
	SessionID  string
	Subject    string
	Status     string
	RecordedAt int64
}

type Session struct {
	ID          string
	Username    string
	StudentName string
	Subjects    string
	Timetable   string
	CreatedAt   int64
	ExpiresAt   int64
}
