// Package registry describes each resource type the console manages: how it is
// searched, how its cards and detail pages read, and how its form is filled and decoded.
package registry

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-console/internal/filter"
	"github.com/jwalitptl/clinic-console/internal/model"
)

// Field is one input of a create/edit form.
type Field struct {
	Name     string
	Label    string
	Input    string // text, number, select, datetime-local
	Options  []Option
	Required bool
}

type Option struct {
	Value string
	Label string
}

// Row is a label/value pair on the detail page.
type Row struct {
	Label string
	Value string
}

type Kind struct {
	Type     model.ResourceType
	Singular string
	Plural   string
	Title    string
	Search   []filter.Rule
	Fields   []Field

	cardTitle   func(model.Record) string
	cardDetails func(model.Record) string
	details     func(model.Record) []Row
	newInput    func() interface{}
}

// Noun is the lower-case singular name used in messages ("doctor").
func (k *Kind) Noun() string {
	return strings.ToLower(k.Singular)
}

func (k *Kind) CardTitle(r model.Record) string {
	return k.cardTitle(r)
}

func (k *Kind) CardDetails(r model.Record) string {
	return k.cardDetails(r)
}

func (k *Kind) Details(r model.Record) []Row {
	return k.details(r)
}

// FormValues populates the edit form from a record, keyed by field name.
func (k *Kind) FormValues(r model.Record) map[string]string {
	values := make(map[string]string, len(k.Fields))
	for _, f := range k.Fields {
		values[f.Name] = r.Display(f.Name)
	}
	return values
}

// Decode binds and validates a submitted form, returning the payload sent to the API.
func (k *Kind) Decode(c *gin.Context) (interface{}, error) {
	dropBlank(c.Request)
	in := k.newInput()
	if err := c.ShouldBind(in); err != nil {
		return nil, err
	}
	return in, nil
}

// dropBlank removes empty posted values. gin binds an empty string to the zero
// value, which would let a blank number field through as 0.
func dropBlank(req *http.Request) {
	if err := req.ParseForm(); err != nil {
		return
	}
	for key, vs := range req.PostForm {
		if len(vs) == 1 && vs[0] == "" {
			delete(req.PostForm, key)
			delete(req.Form, key)
		}
	}
}

type Registry struct {
	kinds map[model.ResourceType]*Kind
}

func New(kinds ...*Kind) *Registry {
	r := &Registry{kinds: make(map[model.ResourceType]*Kind, len(kinds))}
	for _, k := range kinds {
		r.kinds[k.Type] = k
	}
	return r
}

// Default returns the registry for doctors, patients and appointments.
func Default() *Registry {
	return New(doctorKind(), patientKind(), appointmentKind())
}

// Lookup resolves a URL path segment such as "doctors".
func (r *Registry) Lookup(segment string) (*Kind, bool) {
	k, ok := r.kinds[model.ResourceType(segment)]
	return k, ok
}

func (r *Registry) Kind(t model.ResourceType) *Kind {
	return r.kinds[t]
}

// Rules implements filter.RuleSet.
func (r *Registry) Rules(t model.ResourceType) []filter.Rule {
	if k, ok := r.kinds[t]; ok {
		return k.Search
	}
	return nil
}

// All returns the registered kinds in navigation order.
func (r *Registry) All() []*Kind {
	out := make([]*Kind, 0, len(r.kinds))
	for _, t := range model.ResourceTypes {
		if k, ok := r.kinds[t]; ok {
			out = append(out, k)
		}
	}
	return out
}

func doctorKind() *Kind {
	return &Kind{
		Type:     model.Doctors,
		Singular: "Doctor",
		Plural:   "Doctors",
		Title:    "Doctors Management",
		Search: []filter.Rule{
			{Field: "name", Fold: true},
			{Field: "specialization", Fold: true},
		},
		Fields: []Field{
			{Name: "name", Label: "Name", Input: "text", Required: true},
			{Name: "specialization", Label: "Specialization", Input: "text", Required: true},
			{Name: "available", Label: "Available", Input: "select", Options: []Option{
				{Value: "true", Label: "Yes"},
				{Value: "false", Label: "No"},
			}},
		},
		cardTitle: func(r model.Record) string {
			return r.Display("name")
		},
		cardDetails: func(r model.Record) string {
			return fmt.Sprintf("Specialization: %s, Available: %s", r.Display("specialization"), r.Display("available"))
		},
		details: func(r model.Record) []Row {
			return []Row{
				{Label: "ID", Value: r.Display("id")},
				{Label: "Name", Value: r.Display("name")},
				{Label: "Specialization", Value: r.Display("specialization")},
				{Label: "Available", Value: yesNo(r.Bool("available"))},
			}
		},
		newInput: func() interface{} { return &model.DoctorInput{} },
	}
}

func patientKind() *Kind {
	return &Kind{
		Type:     model.Patients,
		Singular: "Patient",
		Plural:   "Patients",
		Title:    "Patients Management",
		Search: []filter.Rule{
			{Field: "name", Fold: true},
			{Field: "age"},
			{Field: "gender", Fold: true},
		},
		Fields: []Field{
			{Name: "name", Label: "Name", Input: "text", Required: true},
			{Name: "age", Label: "Age", Input: "number", Required: true},
			{Name: "gender", Label: "Gender", Input: "select", Required: true, Options: []Option{
				{Value: "Male", Label: "Male"},
				{Value: "Female", Label: "Female"},
				{Value: "Other", Label: "Other"},
			}},
		},
		cardTitle: func(r model.Record) string {
			return r.Display("name")
		},
		cardDetails: func(r model.Record) string {
			return fmt.Sprintf("Age: %s, Gender: %s", r.Display("age"), r.Display("gender"))
		},
		details: func(r model.Record) []Row {
			return []Row{
				{Label: "ID", Value: r.Display("id")},
				{Label: "Name", Value: r.Display("name")},
				{Label: "Age", Value: r.Display("age")},
				{Label: "Gender", Value: r.Display("gender")},
			}
		},
		newInput: func() interface{} { return &model.PatientInput{} },
	}
}

func appointmentKind() *Kind {
	return &Kind{
		Type:     model.Appointments,
		Singular: "Appointment",
		Plural:   "Appointments",
		Title:    "Appointments Management",
		// Id and date fields match case-sensitively.
		Search: []filter.Rule{
			{Field: "doctorId"},
			{Field: "patientId"},
			{Field: "appointmentDate"},
		},
		Fields: []Field{
			{Name: "doctorId", Label: "Doctor ID", Input: "number", Required: true},
			{Name: "patientId", Label: "Patient ID", Input: "number", Required: true},
			{Name: "appointmentDate", Label: "Appointment Date", Input: "datetime-local", Required: true},
		},
		cardTitle: func(r model.Record) string {
			return "Appointment " + r.Display("id")
		},
		cardDetails: func(r model.Record) string {
			return fmt.Sprintf("Doctor ID: %s, Patient ID: %s, Date: %s",
				r.Display("doctorId"), r.Display("patientId"), r.Display("appointmentDate"))
		},
		details: func(r model.Record) []Row {
			return []Row{
				{Label: "ID", Value: r.Display("id")},
				{Label: "Doctor ID", Value: r.Display("doctorId")},
				{Label: "Patient ID", Value: r.Display("patientId")},
				{Label: "Appointment Date", Value: r.Display("appointmentDate")},
			}
		},
		newInput: func() interface{} { return &model.AppointmentInput{} },
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
