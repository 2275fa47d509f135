// Package sheets registers the provenance workbook layout with the core registry.
// Import this package to ensure all sheets are registered.
package sheets

// Registration order is the configuration order: lookup sheets come first so
// that list sources exist before the sheets that reference them.
func init() {
	registerConcepts()
	registerProcesses()
	registerMaterials()
	registerWorkflowTemplates()
	registerWorkflowManagement()
	registerProcessExecution()
}

// Sheet keys.
const (
	Concepts           = "concepts"
	Materials          = "materials"
	Processes          = "processes"
	ProcessExecution   = "processExecution"
	WorkflowManagement = "workflowManagement"
	WorkflowTemplates  = "workflowTemplates"
)

// Column names shared by every mini-table sheet.
const (
	ColGroupID      = "groupId"
	ColHeaderFlag   = "isMiniTableHeader"
	ColStepNumber   = "stepNumber"
	ColProcessType  = "processType"
	ColProcessName  = "processName"
	ColMaterialName = "materialName"
	ColNotes        = "notes"
)
