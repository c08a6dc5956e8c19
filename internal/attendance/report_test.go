package attendance

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportMatrix(t *testing.T) {
	store := NewMemoryStore()
	now := t0
	svc := NewService(store).WithClock(func() time.Time { return now })
	ctx := context.Background()

	_, err := store.UpsertStudent(ctx, "002", "Budi")
	require.NoError(t, err)
	_, err = store.UpsertStudent(ctx, "001", "Ani")
	require.NoError(t, err)

	first, err := svc.CreateSession(ctx, "Pertemuan 1", 0, 0)
	require.NoError(t, err)
	now = t0.Add(time.Hour)
	second, err := svc.CreateSession(ctx, "Pertemuan 2", 0, 0)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, Submission{SessionID: second.ID, NIM: "002", DeviceID: "d1"})
	require.NoError(t, err)

	m, err := svc.Export(ctx)
	require.NoError(t, err)
	require.Len(t, m.Sessions, 2)
	assert.Equal(t, first.ID, m.Sessions[0].ID)
	assert.Equal(t, second.ID, m.Sessions[1].ID)

	require.Len(t, m.Rows, 2)
	assert.Equal(t, "001", m.Rows[0].Student.NIM)
	assert.Equal(t, []bool{false, false}, m.Rows[0].Present)
	assert.Equal(t, "002", m.Rows[1].Student.NIM)
	assert.Equal(t, []bool{false, true}, m.Rows[1].Present)

	var buf bytes.Buffer
	require.NoError(t, m.WriteCSV(&buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "\ufeff"))
	assert.Equal(t, 1, strings.Count(out, `"Hadir"`))
	assert.Equal(t, 3, strings.Count(out, `"Tidak Hadir"`))

	want := "\ufeff" +
		`"NIM","Nama","Pertemuan 1","Pertemuan 2"` + "\n" +
		`"001","Ani","Tidak Hadir","Tidak Hadir"` + "\n" +
		`"002","Budi","Tidak Hadir","Hadir"` + "\n"
	assert.Equal(t, want, out)
}

func TestWriteCSVEscapesQuotes(t *testing.T) {
	m := Matrix{
		Sessions: []Session{{ID: "s1", Title: `Kuliah "Umum", Aula`}},
		Rows:     []MatrixRow{{Student: Student{NIM: "1", Name: ""}, Present: []bool{true}}},
	}
	var buf bytes.Buffer
	require.NoError(t, m.WriteCSV(&buf))
	assert.Equal(t, "\ufeff"+`"NIM","Nama","Kuliah ""Umum"", Aula"`+"\n"+`"1","","Hadir"`+"\n", buf.String())
}

func TestExportEmpty(t *testing.T) {
	m, err := NewService(NewMemoryStore()).Export(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, m.WriteCSV(&buf))
	assert.Equal(t, "\ufeff"+`"NIM","Nama"`+"\n", buf.String())
}

func TestExportFilename(t *testing.T) {
	at := time.Date(2025, 3, 10, 23, 30, 0, 0, time.FixedZone("WIB", 7*3600))
	assert.Equal(t, "absensi-2025-03-10.csv", ExportFilename(at))
}
