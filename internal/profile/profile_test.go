package profile

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ashureev/agent-onboarding/internal/domain"
	"github.com/ashureev/agent-onboarding/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	records   map[string]domain.AgentRecord
	getErr    error
	updateErr error
	lastPatch *domain.AgentPatch

	// reloadErr fails reads once an update has been applied.
	reloadErr error
}

func newFakeRepo(recs ...domain.AgentRecord) *fakeRepo {
	f := &fakeRepo{records: make(map[string]domain.AgentRecord)}
	for _, r := range recs {
		f.records[r.AgentID] = r
	}
	return f
}

func (f *fakeRepo) GetLatestAgent(_ context.Context, id string) (*domain.AgentRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.reloadErr != nil && f.lastPatch != nil {
		return nil, f.reloadErr
	}
	r, ok := f.records[id]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	return &r, nil
}

func (f *fakeRepo) AgentExists(_ context.Context, id string) (bool, error) {
	_, ok := f.records[id]
	return ok, nil
}

func (f *fakeRepo) UpdateAgent(_ context.Context, id string, p domain.AgentPatch) error {
	f.lastPatch = &p
	if f.updateErr != nil {
		return f.updateErr
	}
	r, ok := f.records[id]
	if !ok {
		return store.ErrRecordNotFound
	}
	f.records[id] = r.Apply(p)
	return nil
}

func (f *fakeRepo) CreateAgent(_ context.Context, r *domain.AgentRecord) error {
	f.records[r.AgentID] = *r
	return nil
}

func (f *fakeRepo) Ping(context.Context) error { return nil }
func (f *fakeRepo) Close() error { return nil }

func sampleRecord() domain.AgentRecord {
	return domain.AgentRecord{
		AgentID:            "a1",
		UserName:           "Jane Doe",
		CompanyName:        "Acme",
		Email:              "jane@acme.test",
		ICPIndustries:      "A, B ,C,",
		ICPGeo:             "Austin, TX",
		ICPTitle:           " VP of Sales ",
		ICPDepartment:      "",
		ICPEmployees:       500,
		ICPLocations:       2,
		ICPRevenue:         1_500_000,
		KeyDifferentiators: "Fast; Local, Friendly; Cheap",
		CommStyle:          strings.Repeat("x", 130),
		RationaleICP:       "because",
	}
}

func TestToEditableDraft(t *testing.T) {
	d := ToEditableDraft(sampleRecord())
	assert.Equal(t, []string{"A", "B", "C"}, d.Industries)
	assert.Equal(t, []string{"Austin", "TX"}, d.Geo)
	assert.Equal(t, []string{"VP of Sales"}, d.Titles)
	assert.Empty(t, d.Departments)
	assert.Equal(t, []string{"Fast", "Local", "Friendly", "Cheap"}, d.Differentiators)
}

func TestDraftRoundTrip(t *testing.T) {
	rec := domain.AgentRecord{AgentID: "a1", ICPIndustries: "A, B, C"}
	d := ToEditableDraft(rec)
	require.Equal(t, []string{"A", "B", "C"}, d.Industries)

	p := PatchFromDraft(d)
	require.NotNil(t, p.ICPIndustries)
	assert.Equal(t, "A, B, C", *p.ICPIndustries)

	again := ToEditableDraft(rec.Apply(p))
	assert.Equal(t, d.Industries, again.Industries)
}

func TestPatchFromDraft_Separators(t *testing.T) {
	p := PatchFromDraft(domain.EditableDraft{
		Titles:          []string{"CEO", " CTO "},
		Departments:     []string{""},
		Differentiators: []string{"Fast", "", "Local"},
	})
	assert.Equal(t, "CEO, CTO", *p.ICPTitle)
	assert.Equal(t, "", *p.ICPDepartment)
	assert.Equal(t, "Fast; Local", *p.KeyDifferentiators)
}

func TestNarrativeConsistency(t *testing.T) {
	rec := sampleRecord()
	d := ToEditableDraft(rec)
	assert.Equal(t, RecordNarrative(rec), DraftNarrative(d))
	assert.Equal(t, DraftNarrative(d), DraftNarrative(d))
	assert.True(t, strings.HasPrefix(RecordNarrative(rec), "I'll prioritize A, B, and C companies in Austin, TX. "))
}

func TestEditor_LoadOutcomes(t *testing.T) {
	repo := newFakeRepo(sampleRecord())
	e := NewEditor(repo, nil)

	rec, err := e.Load(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", rec.CompanyName)

	_, err = e.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrAgentNotFound)
	assert.NotErrorIs(t, err, ErrLoadFailed)

	repo.getErr = errors.New("connection refused")
	_, err = e.Load(context.Background(), "a1")
	assert.ErrorIs(t, err, ErrLoadFailed)
	assert.NotErrorIs(t, err, ErrAgentNotFound)
}

func TestEditor_Save(t *testing.T) {
	repo := newFakeRepo(sampleRecord())
	e := NewEditor(repo, nil)

	d, err := e.Draft(context.Background(), "a1")
	require.NoError(t, err)
	d.Industries = []string{"Retail", "Finance"}
	d.Departments = []string{"Sales"}

	rec, err := e.Save(context.Background(), "a1", d)
	require.NoError(t, err)
	assert.Equal(t, "Retail, Finance", rec.ICPIndustries)
	assert.Equal(t, "Sales", rec.ICPDepartment)
	assert.Equal(t, "because", rec.RationaleICP, "rationale is not editable")
	assert.Equal(t, "Fast; Local; Friendly; Cheap", rec.KeyDifferentiators)
}

func TestEditor_SaveReloadFailureKeepsRecord(t *testing.T) {
	rec := sampleRecord()
	rec.CreatedAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec.RationaleDiff = "stands out"
	repo := newFakeRepo(rec)
	repo.reloadErr = errors.New("connection reset")
	e := NewEditor(repo, nil)

	d := ToEditableDraft(rec)
	d.Industries = []string{"Retail"}

	got, err := e.Save(context.Background(), "a1", d)
	require.NoError(t, err)
	assert.Equal(t, "Retail", got.ICPIndustries)
	assert.Equal(t, rec.CreatedAt, got.CreatedAt)
	assert.Equal(t, "because", got.RationaleICP)
	assert.Equal(t, "stands out", got.RationaleDiff)
	assert.Equal(t, "Jane Doe", got.UserName)
}

func TestEditor_SaveFailurePreservesDraft(t *testing.T) {
	repo := newFakeRepo(sampleRecord())
	repo.updateErr = errors.New("timeout")
	e := NewEditor(repo, nil)

	d := ToEditableDraft(sampleRecord())
	d.Industries = []string{"Retail"}
	before := append([]string(nil), d.Industries...)

	_, err := e.Save(context.Background(), "a1", d)
	assert.ErrorIs(t, err, ErrSaveFailed)
	assert.Equal(t, before, d.Industries)
	assert.Equal(t, "A, B ,C,", repo.records["a1"].ICPIndustries)

	_, err = NewEditor(newFakeRepo(), nil).Save(context.Background(), "missing", d)
	assert.ErrorIs(t, err, ErrAgentNotFound)
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleRecord())
	assert.Equal(t, "Jane Doe • jane@acme.test", s.Contact)
	assert.Equal(t, "A, B, and C", s.Industries)
	assert.Equal(t, "~500 employees • 2 locations • $1.5M revenue", s.CompanySize)
	assert.Equal(t, []string{"Fast", "Local", "Friendly"}, s.Differentiators)
	assert.Equal(t, strings.Repeat("x", 120)+"...", s.CommStyle)
	assert.Equal(t, "VP of Sales", s.Title)
	assert.Equal(t, "because", s.Rationale.ICP)

	rec := sampleRecord()
	rec.ICPGeo = "Various"
	assert.Empty(t, Summarize(rec).Geo)
}
