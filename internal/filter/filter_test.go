package filter_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-console/internal/filter"
	"github.com/jwalitptl/clinic-console/internal/model"
	"github.com/jwalitptl/clinic-console/internal/registry"
)

func doctors() []model.Record {
	return []model.Record{
		{"id": json.Number("1"), "name": "Alice Smith", "specialization": "Cardiology", "available": true},
		{"id": json.Number("2"), "name": "Bob Lee", "specialization": "Neurology", "available": false},
	}
}

func patients() []model.Record {
	return []model.Record{
		{"id": json.Number("1"), "name": "Carol King", "age": json.Number("30"), "gender": "Female"},
		{"id": json.Number("2"), "name": "Dan Brown", "age": json.Number("45"), "gender": "Male"},
		{"id": json.Number("3"), "name": "Eve Adams", "age": json.Number("130"), "gender": "Female"},
	}
}

func appointments() []model.Record {
	return []model.Record{
		{"id": json.Number("1"), "doctorId": json.Number("10"), "patientId": json.Number("20"), "appointmentDate": "2024-01-05"},
		{"id": json.Number("2"), "doctorId": json.Number("3"), "patientId": json.Number("4"), "appointmentDate": "2023-12-31T09:30"},
	}
}

func ids(records []model.Record) []int64 {
	out := make([]int64, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID())
	}
	return out
}

func newEngine() *filter.Engine {
	return filter.NewEngine(registry.Default())
}

func TestFilter_BlankQueryIsIdentity(t *testing.T) {
	e := newEngine()
	sets := map[model.ResourceType][]model.Record{
		model.Doctors:      doctors(),
		model.Patients:     patients(),
		model.Appointments: appointments(),
	}

	for typ, data := range sets {
		for _, q := range []string{"", "   ", "\t"} {
			got := e.Filter(typ, q, data)
			require.Len(t, got, len(data), "%s %q", typ, q)
			assert.Same(t, &data[0], &got[0], "%s %q should return the input slice", typ, q)
		}
	}
}

func TestFilter_DoctorScenario(t *testing.T) {
	e := newEngine()
	data := doctors()

	assert.Equal(t, []int64{1}, ids(e.Filter(model.Doctors, "cardio", data)))

	none := e.Filter(model.Doctors, "zzz", data)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestFilter_DoctorCaseInsensitive(t *testing.T) {
	e := newEngine()

	assert.Equal(t, []int64{1}, ids(e.Filter(model.Doctors, "ALICE", doctors())))
	assert.Equal(t, []int64{2}, ids(e.Filter(model.Doctors, "nEuRo", doctors())))
	assert.Equal(t, []int64{1, 2}, ids(e.Filter(model.Doctors, "LOGY", doctors())))
}

func TestFilter_PatientAgeAndGender(t *testing.T) {
	e := newEngine()

	assert.Equal(t, []int64{1, 3}, ids(e.Filter(model.Patients, "30", patients())))
	assert.Equal(t, []int64{1, 3}, ids(e.Filter(model.Patients, "FEM", patients())))
	// "male" is a substring of "female" too.
	assert.Equal(t, []int64{1, 2, 3}, ids(e.Filter(model.Patients, "male", patients())))
}

func TestFilter_AppointmentScenario(t *testing.T) {
	e := newEngine()
	data := appointments()

	assert.Equal(t, []int64{1}, ids(e.Filter(model.Appointments, "10", data)))
	assert.Equal(t, []int64{1}, ids(e.Filter(model.Appointments, "2024", data)))
	assert.Equal(t, []int64{2}, ids(e.Filter(model.Appointments, "T09", data)))
}

func TestFilter_AppointmentIsCaseSensitive(t *testing.T) {
	e := newEngine()

	assert.Empty(t, e.Filter(model.Appointments, "t09", appointments()))
}

func TestFilter_QueryIsNotTrimmedForMatching(t *testing.T) {
	e := newEngine()

	assert.Empty(t, e.Filter(model.Doctors, " cardio", doctors()))
	assert.Equal(t, []int64{2}, ids(e.Filter(model.Doctors, "bob lee", doctors())))
}

func TestFilter_MissingFieldsDoNotMatch(t *testing.T) {
	e := newEngine()
	data := []model.Record{
		{"id": json.Number("1"), "name": nil},
		{"id": json.Number("2"), "name": "Zed", "specialization": map[string]interface{}{"x": "cardio"}},
		{"id": json.Number("3"), "age": true, "gender": nil},
		{"id": json.Number("4")},
	}

	assert.NotPanics(t, func() {
		assert.Empty(t, e.Filter(model.Doctors, "cardio", data))
		assert.Empty(t, e.Filter(model.Patients, "true", data))
		assert.Empty(t, e.Filter(model.Appointments, "1", data))
	})
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	e := newEngine()
	data := doctors()
	before := ids(data)

	_ = e.Filter(model.Doctors, "bob", data)

	assert.Equal(t, before, ids(data))
	assert.Equal(t, "Alice Smith", data[0]["name"])
}

func TestFilter_ResultIsExactlyTheMatchingSubsequence(t *testing.T) {
	reg := registry.Default()
	e := filter.NewEngine(reg)
	sets := map[model.ResourceType][]model.Record{
		model.Doctors:      doctors(),
		model.Patients:     patients(),
		model.Appointments: appointments(),
	}
	queries := []string{"a", "A", "1", "20", "3", "lee", "Female", "2023", "x", "-0"}

	for typ, data := range sets {
		rules := reg.Rules(typ)
		for _, q := range queries {
			got := e.Filter(typ, q, data)

			var want []int64
			for _, r := range data {
				if filter.Matches(r, rules, q) {
					want = append(want, r.ID())
				}
			}
			if want == nil {
				want = []int64{}
			}
			assert.Equal(t, want, ids(got), "%s %q", typ, q)
		}
	}
}

func TestApply_UnknownTypeMatchesNothing(t *testing.T) {
	e := newEngine()

	assert.Empty(t, e.Filter(model.ResourceType("nurses"), "alice", doctors()))
}
