package wiql

// FieldType defines the value type of a work item field.
type FieldType string

const (
	TypeString    FieldType = "String"
	TypeInteger   FieldType = "Integer"
	TypeDouble    FieldType = "Double"
	TypeBoolean   FieldType = "Boolean"
	TypeDateTime  FieldType = "DateTime"
	TypeIdentity  FieldType = "Identity"
	TypeTreePath  FieldType = "TreePath"
	TypeGuid      FieldType = "Guid"
	TypePlainText FieldType = "PlainText"
	TypeHTML      FieldType = "Html"
	TypeHistory   FieldType = "History"
)

// Well-known field reference names.
const (
	FieldID              = "System.Id"
	FieldTitle           = "System.Title"
	FieldState           = "System.State"
	FieldReason          = "System.Reason"
	FieldRev             = "System.Rev"
	FieldWorkItemType    = "System.WorkItemType"
	FieldAssignedTo      = "System.AssignedTo"
	FieldCreatedBy       = "System.CreatedBy"
	FieldChangedBy       = "System.ChangedBy"
	FieldCreatedDate     = "System.CreatedDate"
	FieldChangedDate     = "System.ChangedDate"
	FieldTeamProject     = "System.TeamProject"
	FieldAreaPath        = "System.AreaPath"
	FieldIterationPath   = "System.IterationPath"
	FieldPriority        = "System.Priority"
	FieldTags            = "System.Tags"
	FieldDescription     = "System.Description"
	FieldHistory         = "System.History"
	FieldActivatedDate   = "Microsoft.VSTS.Common.ActivatedDate"
	FieldResolvedDate    = "Microsoft.VSTS.Common.ResolvedDate"
	FieldClosedDate      = "Microsoft.VSTS.Common.ClosedDate"
	FieldStateChangeDate = "Microsoft.VSTS.Common.StateChangeDate"
	FieldSeverity        = "Microsoft.VSTS.Common.Severity"
	FieldStoryPoints     = "Microsoft.VSTS.Scheduling.StoryPoints"
)

// DefaultOperators returns the legal operator set for a value type.
func DefaultOperators(t FieldType) []Operator {
	switch t {
	case TypeString, TypePlainText, TypeHTML:
		return []Operator{OpEqual, OpNotEqual, OpLike, OpIn, OpNotIn, OpContains}
	case TypeInteger, TypeDouble:
		return []Operator{OpEqual, OpNotEqual, OpGreater, OpGreaterOrEqual, OpLess, OpLessOrEqual, OpIn, OpNotIn}
	case TypeDateTime:
		return []Operator{OpEqual, OpNotEqual, OpGreater, OpGreaterOrEqual, OpLess, OpLessOrEqual, OpEver, OpNotEver, OpWasEver, OpChangedDate}
	case TypeBoolean:
		return []Operator{OpEqual, OpNotEqual}
	case TypeTreePath:
		return []Operator{OpEqual, OpNotEqual, OpUnder, OpIn, OpNotIn}
	default: // Identity, Guid, History
		return []Operator{OpEqual, OpNotEqual}
	}
}

// FieldDefinition describes a queryable work item field.
type FieldDefinition struct {
	DisplayName   string
	ReferenceName string
	Type          FieldType
	Sortable      bool
	Queryable     bool
	Operators     []Operator
}

// NewField creates a sortable, queryable definition with the default
// operator set for its type.
func NewField(displayName, referenceName string, t FieldType) FieldDefinition {
	return FieldDefinition{
		DisplayName:   displayName,
		ReferenceName: referenceName,
		Type:          t,
		Sortable:      true,
		Queryable:     true,
		Operators:     DefaultOperators(t),
	}
}

// WithOperators overrides the legal operator set.
func (f FieldDefinition) WithOperators(ops ...Operator) FieldDefinition {
	f.Operators = ops
	return f
}

// NotSortable marks the field as unusable in ORDER BY.
func (f FieldDefinition) NotSortable() FieldDefinition {
	f.Sortable = false
	return f
}

// SupportsOperator reports whether op is legal for this field.
func (f FieldDefinition) SupportsOperator(op Operator) bool {
	for _, o := range f.Operators {
		if o == op {
			return true
		}
	}
	return false
}

// Registry catalogs field definitions. It holds the fixed system table plus
// custom fields registered from configuration. Register is the only mutation
// path; callers must serialize it relative to concurrent Resolve calls
// (custom fields are expected to be loaded once at startup).
type Registry struct {
	system map[string]FieldDefinition
	custom map[string]FieldDefinition
}

// NewRegistry returns a registry preloaded with the system field table.
func NewRegistry() *Registry {
	r := &Registry{
		system: make(map[string]FieldDefinition, len(systemFields)),
		custom: make(map[string]FieldDefinition),
	}
	for _, f := range systemFields {
		r.system[f.ReferenceName] = f
	}
	return r
}

// Register adds or replaces a custom field definition keyed by reference
// name. Last write wins; re-registering silently overwrites the previous
// entry.
func (r *Registry) Register(f FieldDefinition) {
	r.custom[f.ReferenceName] = f
}

// Resolve returns the definition for a reference name. Custom definitions
// shadow system definitions with the same name.
func (r *Registry) Resolve(referenceName string) (FieldDefinition, bool) {
	if f, ok := r.custom[referenceName]; ok {
		return f, true
	}
	f, ok := r.system[referenceName]
	return f, ok
}

// Fields returns the merged view of system and custom definitions.
func (r *Registry) Fields() map[string]FieldDefinition {
	merged := make(map[string]FieldDefinition, len(r.system)+len(r.custom))
	for k, v := range r.system {
		merged[k] = v
	}
	for k, v := range r.custom {
		merged[k] = v
	}
	return merged
}

var systemFields = []FieldDefinition{
	NewField("ID", FieldID, TypeInteger),
	NewField("Title", FieldTitle, TypeString),
	NewField("State", FieldState, TypeString),
	NewField("Reason", FieldReason, TypeString),
	NewField("Rev", FieldRev, TypeInteger),
	NewField("Work Item Type", FieldWorkItemType, TypeString),
	// Identity fields additionally take IN / NOT IN so queries can match a
	// set of people, which the plain Identity default does not cover.
	NewField("Assigned To", FieldAssignedTo, TypeIdentity).
		WithOperators(OpEqual, OpNotEqual, OpIn, OpNotIn),
	NewField("Created By", FieldCreatedBy, TypeIdentity).
		WithOperators(OpEqual, OpNotEqual, OpIn, OpNotIn),
	NewField("Changed By", FieldChangedBy, TypeIdentity).
		WithOperators(OpEqual, OpNotEqual, OpIn, OpNotIn),
	NewField("Created Date", FieldCreatedDate, TypeDateTime),
	NewField("Changed Date", FieldChangedDate, TypeDateTime),
	NewField("Team Project", FieldTeamProject, TypeString),
	NewField("Area Path", FieldAreaPath, TypeTreePath),
	NewField("Iteration Path", FieldIterationPath, TypeTreePath),
	NewField("Priority", FieldPriority, TypeInteger),
	NewField("Tags", FieldTags, TypePlainText).NotSortable(),
	NewField("Description", FieldDescription, TypeHTML).NotSortable(),
	NewField("History", FieldHistory, TypeHistory).NotSortable(),
	NewField("Activated Date", FieldActivatedDate, TypeDateTime),
	NewField("Resolved Date", FieldResolvedDate, TypeDateTime),
	NewField("Closed Date", FieldClosedDate, TypeDateTime),
	NewField("State Change Date", FieldStateChangeDate, TypeDateTime),
	NewField("Severity", FieldSeverity, TypeString),
	NewField("Story Points", FieldStoryPoints, TypeDouble),
}
