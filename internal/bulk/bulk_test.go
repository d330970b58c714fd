package bulk

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/youruser/certgen/internal/cert"
	imagepkg "github.com/youruser/certgen/internal/image"
	"github.com/youruser/certgen/internal/session"
)

var stamp = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

func newPipeline(max int) *Pipeline {
	return &Pipeline{
		Fonts:    imagepkg.NewFontResolver(nil),
		Workers:  3,
		MaxNames: max,
		Now:      func() time.Time { return stamp },
	}
}

func newStore(t *testing.T, withTemplate bool) *session.Store {
	t.Helper()
	s, err := session.New("pw", stamp, session.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	if withTemplate {
		s.SetTemplate(imaging.New(200, 120, color.NRGBA{R: 250, G: 245, B: 230, A: 255}), "t.png", 1, stamp)
	}
	return s
}

func archiveNames(t *testing.T, b []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	require.NoError(t, err)
	names := []string{}
	for _, f := range zr.File {
		names = append(names, f.Name)
		rc, err := f.Open()
		require.NoError(t, err)
		img, err := png.Decode(rc)
		rc.Close()
		require.NoError(t, err)
		assert.Equal(t, 200, img.Bounds().Dx())
	}
	return names
}

func TestRunArchiveHasOneEntryPerName(t *testing.T) {
	store := newStore(t, true)
	entries := []cert.Entry{}
	for i := 0; i < 7; i++ {
		entries = append(entries, cert.Entry{Name: fmt.Sprintf("Name %d", i), Category: []string{"Participant", "Teacher"}[i%2]})
	}

	var mu sync.Mutex
	last := 0
	res, err := newPipeline(0).Run(context.Background(), entries, store.Snapshot(), func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 7, total)
		if done > last {
			last = done
		}
	})
	require.NoError(t, err)
	assert.Equal(t, 7, last)

	names := archiveNames(t, res.Archive)
	require.Len(t, names, 7)
	for i, e := range entries {
		assert.Equal(t, e.Category+"/"+e.Name+".png", names[i])
	}
	require.Len(t, res.Records, 7)
	assert.Equal(t, cert.Record{Name: "Name 0", Category: "Participant", Event: cert.DefaultEventName, Date: "2026-05-04", Day: "Monday", Time: "09:30:00"}, res.Records[0])
}

func TestRunDeduplicatesPairs(t *testing.T) {
	store := newStore(t, true)
	entries := []cert.Entry{{Name: "A", Category: "Participant"}, {Name: "B", Category: "Participant"}, {Name: " A ", Category: "Participant"}, {Name: "A", Category: "Teacher"}, {Name: "", Category: "Teacher"}}
	res, err := newPipeline(0).Run(context.Background(), entries, store.Snapshot(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Participant/A.png", "Participant/B.png", "Teacher/A.png"}, archiveNames(t, res.Archive))
}

func TestRunErrors(t *testing.T) {
	p := newPipeline(2)
	one := []cert.Entry{{Name: "A", Category: "Participant"}}

	_, err := p.Run(context.Background(), one, newStore(t, false).Snapshot(), nil)
	assert.ErrorIs(t, err, session.ErrNoTemplate)

	snap := newStore(t, true).Snapshot()
	_, err = p.Run(context.Background(), nil, snap, nil)
	assert.ErrorIs(t, err, ErrEmptyRun)

	three := []cert.Entry{{Name: "A"}, {Name: "B"}, {Name: "C"}}
	_, err = p.Run(context.Background(), three, snap, nil)
	assert.ErrorIs(t, err, ErrTooManyNames)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Run(ctx, one, snap, nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestArchivePath(t *testing.T) {
	assert.Equal(t, "Participant/Ali Khan.png", ArchivePath(cert.Entry{Name: "Ali Khan", Category: "Participant"}))
	assert.Equal(t, "Guests_VIP/A_B.png", ArchivePath(cert.Entry{Name: "A/B", Category: "Guests/VIP"}))
	assert.Equal(t, "Uncategorized/_.png", ArchivePath(cert.Entry{Name: "..", Category: " "}))
}

func TestArchiveCollisionsGetSuffix(t *testing.T) {
	store := newStore(t, true)
	entries := []cert.Entry{{Name: "A/B", Category: "P"}, {Name: "A_B", Category: "P"}}
	res, err := newPipeline(0).Run(context.Background(), entries, store.Snapshot(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"P/A_B.png", "P/A_B (2).png"}, archiveNames(t, res.Archive))
}

func TestManagerRunTwiceDoesNotDoubleLog(t *testing.T) {
	store := newStore(t, true)
	_, err := store.RegisterMany("Participant", []string{"A", "B", "A"})
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B"}, store.Registrations()[0].Names)

	m := NewManager(newPipeline(0), store, 5)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := m.Start(store.Entries())
	require.NoError(t, err)
	assert.Equal(t, 2, st.Total)
	st, err = m.Wait(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, StateDone, st.State)
	assert.Equal(t, 2, st.Done)
	assert.Equal(t, 2, st.Logged)
	assert.Len(t, store.Log(), 2)

	archive, _, err := m.Archive(st.ID)
	require.NoError(t, err)
	assert.Len(t, archiveNames(t, archive), 2)
	rep, _, err := m.Report(st.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, rep)

	st2, err := m.Start(store.Entries())
	require.NoError(t, err)
	st2, err = m.Wait(ctx, st2.ID)
	require.NoError(t, err)
	assert.Equal(t, StateDone, st2.State)
	assert.Equal(t, 0, st2.Logged)
	assert.Len(t, store.Log(), 2)
	assert.Len(t, m.List(), 2)
}

func TestManagerErrors(t *testing.T) {
	m := NewManager(newPipeline(0), newStore(t, false), 1)
	_, err := m.Start([]cert.Entry{{Name: "A"}})
	assert.ErrorIs(t, err, session.ErrNoTemplate)

	_, err = m.Status("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = m.Cancel("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, _, err = m.Archive("missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestManagerEvictsOldFinishedJobs(t *testing.T) {
	store := newStore(t, true)
	m := NewManager(newPipeline(0), store, 1)
	ctx := context.Background()

	first, err := m.Start([]cert.Entry{{Name: "A", Category: "P"}})
	require.NoError(t, err)
	_, err = m.Wait(ctx, first.ID)
	require.NoError(t, err)

	second, err := m.Start([]cert.Entry{{Name: "B", Category: "P"}})
	require.NoError(t, err)
	_, err = m.Wait(ctx, second.ID)
	require.NoError(t, err)

	_, err = m.Status(first.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)
}
