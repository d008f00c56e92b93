package ecampus

const (
	DefaultBaseUrl = "https://ecampus.psgtech.ac.in/studzone2/"

	loginPath      = ""
	attendancePath = "AttWfPercView.aspx"
	timetablePath  = "AttWfStudTimtab.aspx"
)

// FreeToken marks a schedule slot with no class.
const FreeToken = "Free"

// DefaultStudentName is reported when the portal does not show a name.
const DefaultStudentName = "Student"

type Credentials struct {
	Username string
	Password string
}

func (c Credentials) Empty() bool {
	return c.Username == "" || c.Password == ""
}

// SubjectAttendance is a single row of the attendance table. Percentage is what the
// portal reports, it is never recomputed from the hours.
type SubjectAttendance struct {
	CourseCode    string  `json:"code"`
	DisplayName   string  `json:"name"`
	TotalHours    int     `json:"total"`
	AttendedHours int     `json:"attended"`
	Percentage    float64 `json:"percentage"`
}

// CourseMapping maps course codes to course names, it remembers the order codes were
// inserted in.
type CourseMapping struct {
	codes []string
	names map[string]string
}

func NewCourseMapping() CourseMapping {
	return CourseMapping{names: map[string]string{}}
}

// Set adds or replaces a course, replacing keeps the original position.
func (m *CourseMapping) Set(code, name string) {
	if m.names == nil {
		m.names = map[string]string{}
	}
	if _, exists := m.names[code]; !exists {
		m.codes = append(m.codes, code)
	}
	m.names[code] = name
}

func (m CourseMapping) Name(code string) (string, bool) {
	name, ok := m.names[code]
	return name, ok
}

// Codes returns the course codes in insertion order.
func (m CourseMapping) Codes() []string {
	out := make([]string, len(m.codes))
	copy(out, m.codes)
	return out
}

func (m CourseMapping) Len() int {
	return len(m.codes)
}

// Map returns an unordered copy of the mapping.
func (m CourseMapping) Map() map[string]string {
	out := make(map[string]string, len(m.names))
	for k, v := range m.names {
		out[k] = v
	}
	return out
}

// Weekdays are the schedule labels in the order they appear on the portal grid.
var Weekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri"}

// WeeklySchedule maps a weekday label to its ordered period tokens, each token being
// a course code or FreeToken.
type WeeklySchedule map[string][]string

func emptySchedule() WeeklySchedule {
	out := make(WeeklySchedule, len(Weekdays))
	for _, day := range Weekdays {
		out[day] = []string{}
	}
	return out
}

type StudentProfile struct {
	DisplayName string `json:"display_name"`
}

// Status is the outcome of a portal operation, callers branch on OK.
type Status struct {
	OK      bool
	Message string
	Err     error
}

func statusOk(message string) Status {
	return Status{OK: true, Message: message}
}

func statusFailed(message string, err error) Status {
	return Status{Message: message, Err: err}
}
