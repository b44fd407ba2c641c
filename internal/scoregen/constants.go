package scoregen

// Generation defaults.
const (
	DefaultStudents      = 200
	DefaultLectures      = 12
	DefaultBatches       = 4
	DefaultAttendance    = 0.85
	DefaultResubmitRate  = 0.1
	DefaultMalformedRate = 0.02
	DefaultXLSXEvery     = 3
	DefaultSeed          = 1
)

const (
	directoryPermission = 0o750
	filePermission      = 0o644
	usernamePrefix      = "s-"
	usernameIDLength    = 8
	scoreDecimals       = 100.0
	totalTolerance      = 1e-6
)

// headerVariants rotate across batches so the alias table is exercised.
var headerVariants = [][]string{
	{"username", "lecture", "score"},
	{"User", "Lecture No", "Score (%)"},
	{"login", "lesson", "percentage"},
	{"Student", "Lecture Number", "Score"},
}
