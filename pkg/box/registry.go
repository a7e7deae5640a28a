package box

import "fmt"

// Kind classifies the value a schema field carries. The codec uses it to
// validate decoded values and to pick the decode strategy for nested
// resources.
type Kind int

const (
	// KindAny accepts any JSON value verbatim.
	KindAny Kind = iota
	// KindString accepts a JSON string.
	KindString
	// KindNumber accepts a JSON number.
	KindNumber
	// KindBool accepts a JSON boolean.
	KindBool
	// KindStringList accepts a JSON array of strings.
	KindStringList
	// KindResource accepts a JSON object decoded as a nested resource.
	KindResource
	// KindResourceList accepts a JSON array of nested resources.
	KindResourceList
)

// FieldSpec describes one schema field of a variant.
type FieldSpec struct {
	Kind Kind

	// Elem names the expected variant for KindResource / KindResourceList
	// fields. A nested payload carrying its own type discriminant overrides
	// this default.
	Elem string

	// NullObservable marks a field whose null must survive encoding as an
	// explicit JSON null instead of being omitted.
	NullObservable bool
}

// Descriptor binds a discriminant to a variant constructor and its schema.
type Descriptor struct {
	Type   string
	New    func() Resource
	Fields map[string]FieldSpec
}

// Registry maps discriminant strings to variant descriptors. It is populated
// once at process start for the closed set of known variants and never
// mutated afterwards.
type Registry struct {
	descriptors map[string]*Descriptor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{descriptors: make(map[string]*Descriptor)}
}

// Register adds a descriptor. Registering a duplicate discriminant panics:
// the variant set is fixed at startup and a collision is a programming error.
func (r *Registry) Register(d *Descriptor) {
	if _, ok := r.descriptors[d.Type]; ok {
		panic(fmt.Sprintf("box: duplicate resource type %q", d.Type))
	}
	r.descriptors[d.Type] = d
}

// Lookup returns the descriptor registered for a discriminant.
func (r *Registry) Lookup(typ string) (*Descriptor, bool) {
	d, ok := r.descriptors[typ]
	return d, ok
}

// Default is the registry of all known variants of the mimicked object model.
var Default = newDefaultRegistry()

// itemFields returns the schema shared by every item variant (file, folder).
func itemFields() map[string]FieldSpec {
	return map[string]FieldSpec{
		FieldID:             {Kind: KindString},
		FieldSequenceID:     {Kind: KindString},
		FieldEtag:           {Kind: KindString},
		FieldName:           {Kind: KindString},
		FieldCreatedAt:      {Kind: KindString},
		FieldModifiedAt:     {Kind: KindString},
		FieldDescription:    {Kind: KindString},
		FieldSize:           {Kind: KindNumber},
		FieldPathCollection: {Kind: KindResource, Elem: TypeCollection},
		FieldParent:         {Kind: KindResource, Elem: TypeFolder},
		FieldCreatedBy:      {Kind: KindResource, Elem: TypeUser},
		FieldModifiedBy:     {Kind: KindResource, Elem: TypeUser},
		FieldOwnedBy:        {Kind: KindResource, Elem: TypeUser},
		FieldSharedLink:     {Kind: KindAny},
		FieldItemStatus:     {Kind: KindString},
		FieldTags:           {Kind: KindStringList},
	}
}

func principalFields() map[string]FieldSpec {
	return map[string]FieldSpec{
		FieldID:    {Kind: KindString},
		FieldName:  {Kind: KindString},
		FieldLogin: {Kind: KindString},
	}
}

func newDefaultRegistry() *Registry {
	r := NewRegistry()

	fileFields := itemFields()
	fileFields[FieldSHA1] = FieldSpec{Kind: KindString}
	r.Register(&Descriptor{
		Type:   TypeFile,
		New:    func() Resource { return NewFile() },
		Fields: fileFields,
	})

	folderFields := itemFields()
	folderFields[FieldFolderUploadEmail] = FieldSpec{Kind: KindResource, Elem: TypeEmail}
	folderFields[FieldItemCollection] = FieldSpec{Kind: KindResource, Elem: TypeCollection}
	r.Register(&Descriptor{
		Type:   TypeFolder,
		New:    func() Resource { return NewFolder() },
		Fields: folderFields,
	})

	r.Register(&Descriptor{
		Type: TypeCollection,
		New:  func() Resource { return NewCollection() },
		Fields: map[string]FieldSpec{
			// Entries default to file stubs; each entry carrying its own
			// type discriminant decodes as that variant instead.
			FieldEntries:    {Kind: KindResourceList, Elem: TypeFile},
			FieldTotalCount: {Kind: KindNumber},
		},
	})

	r.Register(&Descriptor{
		Type:   TypeUser,
		New:    func() Resource { return NewUser() },
		Fields: principalFields(),
	})

	r.Register(&Descriptor{
		Type:   TypeGroup,
		New:    func() Resource { return NewGroup() },
		Fields: principalFields(),
	})

	r.Register(&Descriptor{
		Type: TypeCollaboration,
		New:  func() Resource { return NewCollaboration() },
		Fields: map[string]FieldSpec{
			FieldID:             {Kind: KindString},
			FieldCreatedAt:      {Kind: KindString, NullObservable: true},
			FieldModifiedAt:     {Kind: KindString, NullObservable: true},
			FieldCreatedBy:      {Kind: KindResource, Elem: TypeUser},
			FieldExpiresAt:      {Kind: KindString, NullObservable: true},
			FieldStatus:         {Kind: KindString},
			FieldAcknowledgedAt: {Kind: KindString, NullObservable: true},
			FieldFolder:         {Kind: KindResource, Elem: TypeFolder},
			FieldAccessibleBy:   {Kind: KindResource, Elem: TypeUser},
			FieldRole:           {Kind: KindString},
		},
	})

	r.Register(&Descriptor{
		Type: TypeComment,
		New:  func() Resource { return NewComment() },
		Fields: map[string]FieldSpec{
			FieldID:             {Kind: KindString},
			FieldIsReplyComment: {Kind: KindBool},
			FieldMessage:        {Kind: KindString},
			FieldCreatedBy:      {Kind: KindResource, Elem: TypeUser},
			FieldCreatedAt:      {Kind: KindString},
			FieldModifiedAt:     {Kind: KindString},
			FieldItem:           {Kind: KindResource, Elem: TypeFile},
		},
	})

	r.Register(&Descriptor{
		Type: TypeEmail,
		New:  func() Resource { return NewEmail() },
		Fields: map[string]FieldSpec{
			FieldAccess: {Kind: KindString},
			FieldEmail:  {Kind: KindString},
		},
	})

	r.Register(&Descriptor{
		Type: TypeError,
		New:  func() Resource { return NewErrorObject() },
		Fields: map[string]FieldSpec{
			FieldStatus:    {Kind: KindNumber},
			FieldCode:      {Kind: KindString},
			FieldMessage:   {Kind: KindString},
			FieldHelpURL:   {Kind: KindString},
			FieldRequestID: {Kind: KindString},
		},
	})

	return r
}

// CloneResource deep-copies a resource, reconstructing it through the
// constructor registered for its discriminant so the copy is the same
// concrete variant.
func CloneResource(res Resource) (Resource, error) {
	desc, ok := Default.Lookup(res.ResourceType())
	if !ok {
		return nil, fmt.Errorf("box: unregistered resource type %q", res.ResourceType())
	}
	obj, err := res.Properties().Clone()
	if err != nil {
		return nil, err
	}
	out := desc.New()
	*out.Properties() = *obj
	return out, nil
}
