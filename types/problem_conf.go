package types

// Difficulty defines problem difficulty
type Difficulty string

// Problem difficulties
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known difficulties
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Problem defines a single programming exercise
type Problem struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Difficulty  Difficulty `json:"difficulty" yaml:"difficulty"`
	Category    string     `json:"category" yaml:"category"`
	Description string     `json:"description" yaml:"description"`
	Examples    []Example  `json:"examples,omitempty" yaml:"examples"`
	StarterCode string     `json:"starterCode" yaml:"starterCode"`
	Solution    string     `json:"solution,omitempty" yaml:"solution"`
	TestCases   []TestCase `json:"testCases" yaml:"testCases"`
	Hints       []string   `json:"hints,omitempty" yaml:"hints"`

	// EntryPoint names the function under test, empty to let the resolver decide
	EntryPoint string `json:"entryPoint,omitempty" yaml:"entryPoint"`
	// Language of the starter code and solution (typescript by default)
	Language string `json:"language,omitempty" yaml:"language"`
}

// Example is a worked example shown with the description
type Example struct {
	Input       string `json:"input" yaml:"input"`
	Output      string `json:"output" yaml:"output"`
	Explanation string `json:"explanation,omitempty" yaml:"explanation"`
}

// TestCase defines single judge case
type TestCase struct {
	// Input is a single argument, or positional arguments when it is a list
	Input          any    `json:"input" yaml:"input"`
	ExpectedOutput any    `json:"expectedOutput" yaml:"expectedOutput"`
	Description    string `json:"description,omitempty" yaml:"description"`
}
