// Package models declares the lending library served by the elide command.
package models

import (
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/yahoo/elide-sub004/internal/dictionary"
)

// AdminRole guards mutations of the catalog
const AdminRole = "Library.Admin"

type Library struct {
	dictionary.Model `elide:"include;root;name:library;description:A branch of the lending library"`
	ID               uuid.UUID `elide:"id;generated"`
	Name             string    `json:"name"`
	Address          Address   `json:"address"`
	Books            []*Book   `json:"books" elide:"oneToMany;create:Library.Admin"`
	Members          []*Member `json:"members" elide:"oneToMany;mappedBy:library"`
}

// Address is a complex attribute of a library
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	Zip    string `json:"zip"`
}

type Book struct {
	dictionary.Model `elide:"include;root;name:book;create:Library.Admin;delete:Library.Admin"`
	ID               uuid.UUID           `elide:"id;generated"`
	Title            string              `json:"title"`
	ISBN             string              `json:"isbn" elide:"update:Prefab.Role.None"`
	Genre            string              `json:"genre"`
	Published        time.Time           `json:"published"`
	Tags             map[string]struct{} `json:"tags"`
	Authors          []*Author           `json:"authors" elide:"manyToMany;update:Prefab.Collections.AppendOnly OR Library.Admin"`
	Publisher        *Publisher          `json:"publisher" elide:"manyToOne"`
	Loans            []*Loan             `json:"loans" elide:"oneToMany;mappedBy:book"`
}

func (b *Book) MethodTags() map[string]string {
	return map[string]string{"GetDisplayTitle": "computed"}
}

// GetDisplayTitle renders the title with its genre
func (b *Book) GetDisplayTitle() string {
	if b.Genre == "" {
		return b.Title
	}
	return b.Title + " (" + b.Genre + ")"
}

type Author struct {
	dictionary.Model `elide:"include;root;name:author;paginate:offset,cursor"`
	ID               uuid.UUID `elide:"id;generated"`
	Name             string    `json:"name"`
	Books            []*Book   `json:"books" elide:"manyToMany;mappedBy:authors"`
}

type Publisher struct {
	dictionary.Model `elide:"include;name:publisher;update:Library.Admin"`
	ID               int64  `elide:"id"`
	Name             string `json:"name"`
}

type Member struct {
	dictionary.Model `elide:"include;name:member;read:Library.Admin"`
	ID               uuid.UUID  `elide:"id;generated"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	PasswordHash     string     `elide:"exclude"`
	Library          *Library   `json:"library" elide:"manyToOne"`
	Loans            []*Loan    `json:"loans" elide:"oneToMany;mappedBy:member"`
	Joined           *time.Time `json:"joined"`
}

// Loan ids are ULIDs so they sort by checkout time
type Loan struct {
	dictionary.Model `elide:"include;name:loan;delete:Prefab.Role.None;paginate:cursor,nocount"`
	ID               ulid.ULID `elide:"id"`
	Due              time.Time `json:"due"`
	Returned         bool      `json:"returned"`
	Book             *Book     `json:"book" elide:"manyToOne;update:Prefab.Role.None"`
	Member           *Member   `json:"member" elide:"manyToOne;update:Prefab.Role.None"`
}

// Types lists every model of the library
func Types() []reflect.Type {
	return []reflect.Type{
		reflect.TypeOf(Library{}),
		reflect.TypeOf(Book{}),
		reflect.TypeOf(Author{}),
		reflect.TypeOf(Publisher{}),
		reflect.TypeOf(Member{}),
		reflect.TypeOf(Loan{}),
	}
}

// NewDictionary binds the library models into a fresh dictionary
func NewDictionary(logger *zap.Logger) (*dictionary.Dictionary, error) {
	d := dictionary.New(
		dictionary.WithLogger(logger),
		dictionary.WithRoleCheck(AdminRole, dictionary.RoleMember{Role: "admin"}),
	)
	if err := d.BindEntities(Types()...); err != nil {
		return nil, err
	}
	return d, nil
}
