package pipeline

import "fmt"

// Stage names, in execution order.
const (
	StageValidate = "validate"
	StageStyle    = "style"
	StageScript   = "script"
	StageAssets   = "assets"
	StageCompose  = "compose"
	StageRender   = "render"
	StageSaved    = "saved"
)

// StageDefinition describes one coordinator stage.
type StageDefinition struct {
	Name        string
	Progress    string
	FailureText string
}

// StageRegistry holds the user-facing text for every stage.
var StageRegistry = map[string]StageDefinition{
	StageValidate: {Name: StageValidate, FailureText: "The request is invalid"},
	StageStyle:    {Name: StageStyle, Progress: "Resolving style", FailureText: "The requested style could not be resolved"},
	StageScript:   {Name: StageScript, Progress: "Writing script...", FailureText: "Failed to write the script"},
	StageAssets:   {Name: StageAssets, Progress: "Generating visuals & voice...", FailureText: "Failed to generate scene media"},
	StageCompose:  {Name: StageCompose, FailureText: "Failed to assemble the timeline"},
	StageRender:   {Name: StageRender, Progress: "Rendering video...", FailureText: "Failed to start the render"},
	StageSaved:    {Name: StageSaved, Progress: "Video is rendering"},
}

// StageError is a failure before the render was submitted. No record exists for the run.
type StageError struct {
	Stage   string
	Message string
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %s: %v", e.Stage, e.Message, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(stage string, err error) *StageError {
	return &StageError{Stage: stage, Message: StageRegistry[stage].FailureText, Err: err}
}
