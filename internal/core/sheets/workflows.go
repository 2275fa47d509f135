package sheets

import "github.com/JonMunkholm/provtab/internal/core"

// Workflow sheet columns.
const (
	ColInstrument        = "instrument"
	ColDescription       = "description"
	ColRowType           = "rowType"
	ColWorkflowReference = "workflowReference"
	ColWorkflowName      = "workflowName"
	ColExecutionDate     = "executionDate"
	ColOperator          = "operator"
	ColExecutionType     = "executionType"
	ColProcessReference  = "processReference"
	ColInputMaterial     = "inputMaterial"
	ColOutputMaterial    = "outputMaterial"
)

// Row types of the workflowManagement sheet.
const (
	RowTypeWorkflow              = "workflow"
	RowTypeProcessSpecification  = "process specification"
	RowTypeMaterialSpecification = "material specification"
)

// RowTypes lists the allowed rowType values.
var RowTypes = []string{RowTypeWorkflow, RowTypeProcessSpecification, RowTypeMaterialSpecification}

// Execution types of the processExecution sheet.
const (
	ExecutionPlanned   = "planned"
	ExecutionPerformed = "performed"
)

// ExecutionTypes lists the allowed executionType values.
var ExecutionTypes = []string{ExecutionPlanned, ExecutionPerformed}

func registerProcesses() {
	core.Register(core.SheetDefinition{
		Info: core.SheetInfo{
			Key:    Processes,
			Family: core.FamilyWorkflow,
			Label:  "Processes",
		},
		Columns: []core.ColumnSpec{
			{Name: ColGroupID, Type: core.FieldText, Generated: true},
			{Name: ColHeaderFlag, Type: core.FieldBool, Generated: true},
			{Name: ColProcessType, Type: core.FieldList},
			{Name: ColProcessName, Type: core.FieldText},
			{Name: ColInstrument, Type: core.FieldList},
			{Name: ColDescription, Type: core.FieldText},
		},
		Discriminant:     ColProcessType,
		KeyColumn:        ColGroupID,
		HeaderFlagColumn: ColHeaderFlag,
	})
}

// registerWorkflowTemplates registers the management table that holds
// reporting workflow templates. Templates are written by the configuration
// step, never scaffolded on edit.
func registerWorkflowTemplates() {
	core.Register(core.SheetDefinition{
		Info: core.SheetInfo{
			Key:    WorkflowTemplates,
			Family: core.FamilyWorkflow,
			Label:  "Workflow Templates",
		},
		Columns: []core.ColumnSpec{
			{Name: ColGroupID, Type: core.FieldText, Generated: true},
			{Name: ColHeaderFlag, Type: core.FieldBool, Generated: true},
			{Name: ColWorkflowName, Type: core.FieldText},
			{Name: ColStepNumber, Type: core.FieldNumeric},
			{Name: ColProcessType, Type: core.FieldList},
		},
		KeyColumn:        ColGroupID,
		HeaderFlagColumn: ColHeaderFlag,
		Special:          true,
	})
}

func registerWorkflowManagement() {
	core.Register(core.SheetDefinition{
		Info: core.SheetInfo{
			Key:    WorkflowManagement,
			Family: core.FamilyWorkflow,
			Label:  "Workflow Management",
		},
		Columns: []core.ColumnSpec{
			{Name: ColGroupID, Type: core.FieldText, Generated: true},
			{Name: ColHeaderFlag, Type: core.FieldBool, Generated: true},
			{Name: ColRowType, Type: core.FieldEnum, EnumValues: RowTypes},
			{Name: ColWorkflowReference, Type: core.FieldList},
			{Name: ColStepNumber, Type: core.FieldNumeric},
			{Name: ColProcessType, Type: core.FieldList},
			{Name: ColNotes, Type: core.FieldText},
		},
		Discriminant:     ColRowType,
		KeyColumn:        ColGroupID,
		HeaderFlagColumn: ColHeaderFlag,
	})
}

// registerProcessExecution registers the activity log. Its group id sits in
// column 3, after the date and operator columns.
func registerProcessExecution() {
	core.Register(core.SheetDefinition{
		Info: core.SheetInfo{
			Key:    ProcessExecution,
			Family: core.FamilyWorkflow,
			Label:  "Process Execution",
			Layer:  core.LayerActivities,
		},
		Columns: []core.ColumnSpec{
			{Name: ColExecutionDate, Type: core.FieldDate},
			{Name: ColOperator, Type: core.FieldText},
			{Name: ColGroupID, Type: core.FieldText, Generated: true},
			{Name: ColHeaderFlag, Type: core.FieldBool, Generated: true},
			{Name: ColExecutionType, Type: core.FieldEnum, EnumValues: ExecutionTypes},
			{Name: ColProcessReference, Type: core.FieldList},
			{Name: ColInputMaterial, Type: core.FieldList},
			{Name: ColOutputMaterial, Type: core.FieldList},
			{Name: ColNotes, Type: core.FieldText},
		},
		Discriminant:     ColExecutionType,
		KeyColumn:        ColGroupID,
		HeaderFlagColumn: ColHeaderFlag,
	})
}
