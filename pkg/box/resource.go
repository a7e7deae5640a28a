package box

// Resource type discriminants. The value stored under the "type" field of a
// payload selects the concrete variant during decode and is stamped into
// every encoded payload.
const (
	TypeFile          = "file"
	TypeFolder        = "folder"
	TypeCollection    = "collection"
	TypeUser          = "user"
	TypeGroup         = "group"
	TypeCollaboration = "collaboration"
	TypeComment       = "comment"
	TypeEmail         = "email"
	TypeError         = "error"
)

// JSON field names of the mimicked object model. These are wire-format
// constants and must stay stable across versions.
const (
	FieldType              = "type"
	FieldID                = "id"
	FieldSequenceID        = "sequence_id"
	FieldEtag              = "etag"
	FieldName              = "name"
	FieldCreatedAt         = "created_at"
	FieldModifiedAt        = "modified_at"
	FieldDescription       = "description"
	FieldSize              = "size"
	FieldPathCollection    = "path_collection"
	FieldParent            = "parent"
	FieldCreatedBy         = "created_by"
	FieldModifiedBy        = "modified_by"
	FieldOwnedBy           = "owned_by"
	FieldSharedLink        = "shared_link"
	FieldItemStatus        = "item_status"
	FieldTags              = "tags"
	FieldSHA1              = "sha1"
	FieldItemCollection    = "item_collection"
	FieldFolderUploadEmail = "folder_upload_email"
	FieldEntries           = "entries"
	FieldTotalCount        = "total_count"
	FieldLogin             = "login"
	FieldExpiresAt         = "expires_at"
	FieldStatus            = "status"
	FieldAcknowledgedAt    = "acknowledged_at"
	FieldFolder            = "folder"
	FieldAccessibleBy      = "accessible_by"
	FieldRole              = "role"
	FieldAccess            = "access"
	FieldEmail             = "email"
	FieldMessage           = "message"
	FieldIsReplyComment    = "is_reply_comment"
	FieldItem              = "item"
	FieldCode              = "code"
	FieldHelpURL           = "help_url"
	FieldRequestID         = "request_id"
)

// Resource is a typed property container: one of the known variants of the
// external object model.
type Resource interface {
	// ResourceType returns the discriminant the variant is registered under.
	ResourceType() string

	// Properties returns the backing property container.
	Properties() *Object
}

// File represents a non-folderish document.
type File struct {
	*Object
}

func NewFile() *File { return &File{NewObject()} }
func (f *File) ResourceType() string { return TypeFile }
func (f *File) Properties() *Object { return f.Object }

// Folder represents a folderish document, including the repository root.
type Folder struct {
	*Object
}

func NewFolder() *Folder { return &Folder{NewObject()} }
func (f *Folder) ResourceType() string { return TypeFolder }
func (f *Folder) Properties() *Object { return f.Object }

// Collection is an ordered sequence of resources plus a count.
type Collection struct {
	*Object
}

func NewCollection() *Collection { return &Collection{NewObject()} }
func (c *Collection) ResourceType() string { return TypeCollection }
func (c *Collection) Properties() *Object { return c.Object }

// User is a resolved principal.
type User struct {
	*Object
}

func NewUser() *User { return &User{NewObject()} }
func (u *User) ResourceType() string { return TypeUser }
func (u *User) Properties() *Object { return u.Object }

// Group is a resolved principal group.
type Group struct {
	*Object
}

func NewGroup() *Group { return &Group{NewObject()} }
func (g *Group) ResourceType() string { return TypeGroup }
func (g *Group) Properties() *Object { return g.Object }

// Collaboration is the external projection of a single access-control entry.
type Collaboration struct {
	*Object
}

func NewCollaboration() *Collaboration { return &Collaboration{NewObject()} }
func (c *Collaboration) ResourceType() string { return TypeCollaboration }
func (c *Collaboration) Properties() *Object { return c.Object }

// Comment is a comment attached to an item.
type Comment struct {
	*Object
}

func NewComment() *Comment { return &Comment{NewObject()} }
func (c *Comment) ResourceType() string { return TypeComment }
func (c *Comment) Properties() *Object { return c.Object }

// Email is the folder upload-email placeholder object.
type Email struct {
	*Object
}

func NewEmail() *Email { return &Email{NewObject()} }
func (e *Email) ResourceType() string { return TypeEmail }
func (e *Email) Properties() *Object { return e.Object }

// ErrorObject is the uniform error resource returned for any failure.
type ErrorObject struct {
	*Object
}

func NewErrorObject() *ErrorObject { return &ErrorObject{NewObject()} }
func (e *ErrorObject) ResourceType() string { return TypeError }
func (e *ErrorObject) Properties() *Object { return e.Object }

// ID returns the identity field, "" when unset.
func (o *Object) ID() string { return o.GetString(FieldID) }

// SequenceID returns the sequence identity field, "" when unset or null.
func (o *Object) SequenceID() string { return o.GetString(FieldSequenceID) }

// Etag returns the etag field, "" when unset or null.
func (o *Object) Etag() string { return o.GetString(FieldEtag) }

// Name returns the name field, "" when unset.
func (o *Object) Name() string { return o.GetString(FieldName) }

// Description returns the description field, "" when unset.
func (o *Object) Description() string { return o.GetString(FieldDescription) }

// ItemStatus returns the lifecycle state field, "" when unset.
func (o *Object) ItemStatus() string { return o.GetString(FieldItemStatus) }

// ParentFolder returns the parent stub, nil when unset or not a folder.
func (o *Object) ParentFolder() *Folder {
	f, _ := o.Get(FieldParent).(*Folder)
	return f
}

// OwnedBy returns the owner stub, nil when unset.
func (o *Object) OwnedBy() *User {
	u, _ := o.Get(FieldOwnedBy).(*User)
	return u
}

// CreatedBy returns the creator stub, nil when unset.
func (o *Object) CreatedBy() *User {
	u, _ := o.Get(FieldCreatedBy).(*User)
	return u
}

// TagList returns the tags field as a string slice, nil when unset.
func (o *Object) TagList() []string {
	switch v := o.Get(FieldTags).(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Entries returns the ordered entries of a collection, nil when unset.
func (o *Object) Entries() []Resource {
	list, _ := o.Get(FieldEntries).([]any)
	out := make([]Resource, 0, len(list))
	for _, item := range list {
		if r, ok := item.(Resource); ok {
			out = append(out, r)
		}
	}
	return out
}

// TotalCount returns the total_count of a collection.
func (o *Object) TotalCount() int {
	switch v := o.Get(FieldTotalCount).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
