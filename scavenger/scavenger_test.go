package scavenger_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/samgozman/release-thread/registry"
	"github.com/samgozman/release-thread/scavenger"
	"github.com/stretchr/testify/assert"
)

type fakeExtractor struct {
	name     string
	registry *registry.Registry
	err      error
	panics   bool
}

func (f *fakeExtractor) Name() string {
	return f.name
}

func (f *fakeExtractor) Extract(_ context.Context, _ time.Time) (*registry.Registry, error) {
	if f.panics {
		panic("boom")
	}
	return f.registry, f.err
}

func TestScavenger_Collect(t *testing.T) {
	spotlight := "Stereogum album of the week: Phoebe Bridgers — Punisher"
	b := registry.NewWithMessage(spotlight)
	b.Add("Phoebe Bridgers", "Punisher")
	b.Add("X", "Y")

	a := &fakeExtractor{
		name:     "cos",
		registry: registry.NewWithMessage("CoS doesn't respond"),
		err:      scavenger.NewError("cos", scavenger.ErrSourceUnreachable, errors.New("503")),
	}

	got, err := scavenger.NewScavenger(a, &fakeExtractor{name: "stereogum", registry: b}).
		Collect(context.Background(), time.Now())

	assert.ErrorIs(t, err, scavenger.ErrSourceUnreachable)
	assert.Equal(t, "CoS doesn't respond\n"+spotlight, got.Message())

	want := map[string]string{"phoebe bridgers": "punisher", "x": "y"}
	if !reflect.DeepEqual(got.Releases(), want) {
		t.Errorf("Collect() releases = %v, want %v", got.Releases(), want)
	}
}

func TestScavenger_Collect_laterSourceWins(t *testing.T) {
	a := registry.New()
	a.Add("Wilco", "Cousin")
	a.Add("Big Thief", "Dragon")
	b := registry.New()
	b.Add("wilco", "Yankee Hotel Foxtrot")

	got, err := scavenger.NewScavenger(
		&fakeExtractor{name: "a", registry: a},
		&fakeExtractor{name: "b", registry: b},
	).Collect(context.Background(), time.Now())

	assert.NoError(t, err)
	want := map[string]string{"wilco": "yankee hotel foxtrot", "big thief": "dragon"}
	if !reflect.DeepEqual(got.Releases(), want) {
		t.Errorf("Collect() releases = %v, want %v", got.Releases(), want)
	}
}

func TestScavenger_Collect_misbehavingExtractors(t *testing.T) {
	got, err := scavenger.NewScavenger(
		&fakeExtractor{name: "nil"},
		&fakeExtractor{name: "broken", panics: true},
	).Collect(context.Background(), time.Now())

	assert.NotNil(t, got)
	assert.Equal(t, 0, got.Len())
	assert.ErrorIs(t, err, scavenger.ErrStructuralMiss)
	assert.True(t, strings.HasPrefix(got.Message(), "Error scraping broken: boom"), got.Message())
}

func TestScavenger_Collect_noExtractors(t *testing.T) {
	got, err := scavenger.NewScavenger().Collect(context.Background(), time.Now())
	assert.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestNewScavenger_nilExtractor(t *testing.T) {
	assert.Panics(t, func() {
		scavenger.NewScavenger(&fakeExtractor{name: "a"}, nil)
	})
}
