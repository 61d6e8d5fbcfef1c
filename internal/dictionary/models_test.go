package dictionary

import (
	"context"
	"errors"
	"net/http"
	"reflect"

	"github.com/google/uuid"
)

type Book struct {
	Model     `elide:"include;root;name:book;read:Prefab.Role.All;hook:create:precommit:audit"`
	ID        uuid.UUID           `elide:"id;generated"`
	Title     string              `json:"title" elide:"update:Prefab.Role.None"`
	Genre     string              `json:"genre"`
	Tags      []string            `json:"tags"`
	Ratings   map[string]int      `json:"ratings"`
	Editions  map[int64]struct{}  `json:"editions"`
	PageCount int64               `json:"pageCount" elide:"column:page_count"`
	Authors   []*Author           `json:"authors" elide:"manyToMany;cascade:remove"`
	Publisher *Publisher          `json:"publisher" elide:"manyToOne"`
	Secret    string              `elide:"exclude"`
	Scratch   string              `elide:"transient"`
	Meta      Metadata            `json:"meta"`
	Extra     map[string]struct{} `json:"-" elide:"exclude"`
}

type Metadata struct {
	Source string
}

func (b *Book) MethodTags() map[string]string {
	return map[string]string{
		"GetSummary":   "computed",
		"GetEdition":   "computed",
		"GetBroken":    "computed",
		"OnTitleEdit":  "on:update:precommit:title",
		"OnAnyEdit":    "on:update:postcommit:*",
		"OnBookCreate": "on:create:presecurity",
	}
}

// Computed attribute that receives the request context
func (b *Book) GetSummary(ctx context.Context) string {
	if v, ok := ctx.Value(summaryKey{}).(string); ok {
		return v
	}
	return b.Title + " (" + b.Genre + ")"
}

func (b *Book) GetEdition() (int, error) {
	if b.Genre == "forbidden" {
		return 0, &statusError{code: http.StatusForbidden}
	}
	return 1, nil
}

func (b *Book) GetBroken() string {
	panic("broken accessor")
}

func (b *Book) SetGenre(genre string) error {
	if genre == "invalid" {
		return &statusError{code: http.StatusBadRequest}
	}
	if genre == "boom" {
		return errors.New("database exploded")
	}
	b.Genre = genre
	return nil
}

func (b *Book) OnTitleEdit(ctx context.Context, changes *ChangeSpec) error {
	b.Scratch = "title:" + changes.Modified.(string)
	return nil
}

func (b *Book) OnAnyEdit() {
	b.Scratch = "any"
}

func (b *Book) OnBookCreate(ctx context.Context) {
	b.Scratch = "created"
}

type summaryKey struct{}

type statusError struct {
	code int
}

func (e *statusError) Error() string   { return http.StatusText(e.code) }
func (e *statusError) StatusCode() int { return e.code }

type Author struct {
	Model `elide:"include;root;name:author;paginate:offset,cursor,nocount"`
	ID    int64   `elide:"id"`
	Name  string  `json:"name"`
	Books []*Book `json:"books" elide:"manyToMany;mappedBy:authors"`
}

type Publisher struct {
	Model  `elide:"include;name:publisher;nonTransferable;strict"`
	ID     int64     `elide:"id"`
	Name   string    `json:"name"`
	Books  []*Book   `json:"books" elide:"oneToMany;mappedBy:publisher;cascade:all"`
	Editor *Editor   `json:"editor" elide:"oneToOne"`
	Owner  *Unbound  `json:"owner" elide:"manyToOne"`
	Parent *Excluded `json:"parent" elide:"toOne"`
}

// Editor is an entity that is never bound
type Editor struct {
	Model `elide:"include;name:editor"`
	ID    int64 `elide:"id"`
}

// Unbound is marked as an entity but not included
type Unbound struct {
	Model
	ID int64 `elide:"id"`
}

type Excluded struct {
	Model `elide:"exclude"`
	ID    int64 `elide:"id"`
}

// NotAnEntity has no Model marker
type NotAnEntity struct {
	Name string
}

// SimpleBook mirrors the documented example of two bidirectional models
type SimpleBook struct {
	Model   `elide:"include;name:book"`
	ID      int64           `elide:"id"`
	Title   string          `json:"title"`
	Authors []*SimpleAuthor `json:"authors" elide:"manyToMany"`
}

type SimpleAuthor struct {
	Model `elide:"include;name:author"`
	ID    int64         `elide:"id"`
	Name  string        `json:"name"`
	Books []*SimpleBook `json:"books" elide:"manyToMany;mappedBy:authors"`
}

// BookProxy wraps a bound model the way an ORM proxy would
type BookProxy struct {
	Book
	Loaded bool
}

// Novel inherits from Book
type Novel struct {
	Book
	Model    `elide:"include;name:novel"`
	Narrator string `json:"narrator"`
}

// LazyNovel embeds Book by pointer, which is not inheritance
type LazyNovel struct {
	*Book
	Model    `elide:"include;name:lazyNovel"`
	ID       int64  `elide:"id"`
	Narrator string `json:"narrator"`
}

type DoubleID struct {
	Model     `elide:"include;name:double"`
	ID        int64  `elide:"id"`
	Secondary string `elide:"id"`
}

type EmptyPermission struct {
	Model `elide:"include;name:emptyPermission"`
	ID    int64  `elide:"id"`
	Name  string `json:"name" elide:"read:"`
}

type UnknownCheck struct {
	Model `elide:"include;name:unknownCheck;read:user is wizard"`
	ID    int64 `elide:"id"`
}

type BadExpression struct {
	Model `elide:"include;name:badExpression;delete:Prefab.Role.All AND"`
	ID    int64 `elide:"id"`
}

type UnknownHook struct {
	Model `elide:"include;name:unknownHook;hook:update:precommit:missing"`
	ID    int64 `elide:"id"`
}

// Widget has no id field and so uses property access
type Widget struct {
	Model `elide:"include;name:widget"`
	Label string
	size  int
}

func (w *Widget) GetSize() int                         { return w.size }
func (w *Widget) IsActive() bool                       { return w.size > 0 }
func (w *Widget) Resize(n int)                         { w.size = n }
func (w *Widget) GetClass() string                     { return "reserved" }
func (w *Widget) GetScoped(ctx context.Context) string { return "not computed" }

type Versioned struct {
	Model `elide:"include;name:book;version:2"`
	ID    int64 `elide:"id"`
}

type Duplicate struct {
	Model `elide:"include;name:book"`
	ID    int64 `elide:"id"`
}

// Clock is injected into Injected models
type Clock interface {
	Now() string
}

type fixedClock struct{}

func (fixedClock) Now() string { return "now" }

type Injected struct {
	Model `elide:"include;name:injected"`
	ID    int64 `elide:"id"`
	Clock Clock `inject:""`
}

// auditHook counts its invocations
type auditHook struct {
	Clock Clock `inject:""`
	calls int
}

func (h *auditHook) Execute(ctx context.Context, op Operation, phase TransactionPhase, model any, changes *ChangeSpec) error {
	h.calls++
	return nil
}

// adminCheck allows users in the admin role
type adminCheck struct{}

func (adminCheck) OK(user *User) bool { return user.InRole("admin") }

type wizardCheck struct{}

func (wizardCheck) OK(user *User) bool { return user.InRole("wizard") }

var (
	bookType      = reflect.TypeOf(Book{})
	authorType    = reflect.TypeOf(Author{})
	publisherType = reflect.TypeOf(Publisher{})
)

func newTestDictionary(opts ...Option) *Dictionary {
	opts = append([]Option{
		WithInjector(NewServiceInjector(fixedClock{})),
		WithHook("audit", &auditHook{}),
		WithCheck("user is admin", adminCheck{}),
	}, opts...)
	return New(opts...)
}
