// Package snapshot persists prepared row sets as Arrow IPC files. The format
// preserves column types and null positions exactly, so a reloaded snapshot
// is indistinguishable from the row set that produced it, and identical input
// produces byte-identical files.
package snapshot

import (
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/rotisserie/eris"

	"github.com/raceform/raceform-cli/internal/model"
)

// Column order of the snapshot schema. Readers match on the full schema, not
// on position alone.
const (
	colRaceID = iota
	colDate
	colCourse
	colType
	colPos
	colDraw
	colHorse
	colAge
	colSex
	colWeight
	colJockey
	colTrainer
	colSire
	colDam
	colOR
	colRPR
	colTS
	colPrize
	colPrizeCurrency
	colWon
	colDNF
)

// Schema returns the Arrow schema of a results snapshot.
func Schema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "race_id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "date", Type: arrow.BinaryTypes.String},
		{Name: "course", Type: arrow.BinaryTypes.String},
		{Name: "type", Type: arrow.BinaryTypes.String},
		{Name: "pos", Type: arrow.PrimitiveTypes.Int64},
		{Name: "draw", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "horse", Type: arrow.BinaryTypes.String},
		{Name: "age", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "sex", Type: arrow.BinaryTypes.String},
		{Name: "lbs", Type: arrow.BinaryTypes.String},
		{Name: "jockey", Type: arrow.BinaryTypes.String},
		{Name: "trainer", Type: arrow.BinaryTypes.String},
		{Name: "sire", Type: arrow.BinaryTypes.String},
		{Name: "dam", Type: arrow.BinaryTypes.String},
		{Name: "or", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "rpr", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "ts", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "prize", Type: arrow.BinaryTypes.String},
		{Name: "prize_currency", Type: arrow.BinaryTypes.String},
		{Name: "won", Type: arrow.FixedWidthTypes.Boolean},
		{Name: "dnf", Type: arrow.FixedWidthTypes.Boolean},
	}, nil)
}

// Write serializes rows to an Arrow IPC file at path, replacing any existing
// snapshot. The data is written to a sibling temp file and renamed into
// place, so a crash or full disk never leaves a partial file under the final
// path.
func Write(path string, rows []model.ResultRow) error {
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return eris.Wrapf(err, "snapshot: create %s", tmp)
	}

	if err := writeTo(f, rows); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return eris.Wrap(err, "snapshot: sync")
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return eris.Wrap(err, "snapshot: close")
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return eris.Wrapf(err, "snapshot: rename %s", path)
	}
	return nil
}

func writeTo(w io.Writer, rows []model.ResultRow) error {
	schema := Schema()
	mem := memory.DefaultAllocator

	bldr := array.NewRecordBuilder(mem, schema)
	defer bldr.Release()

	for _, row := range rows {
		bldr.Field(colRaceID).(*array.Int64Builder).Append(row.RaceID)
		bldr.Field(colDate).(*array.StringBuilder).Append(row.Date)
		bldr.Field(colCourse).(*array.StringBuilder).Append(row.Course)
		bldr.Field(colType).(*array.StringBuilder).Append(row.Type)
		bldr.Field(colPos).(*array.Int64Builder).Append(row.Position)
		appendNullable(bldr.Field(colDraw).(*array.Int64Builder), row.Draw)
		bldr.Field(colHorse).(*array.StringBuilder).Append(row.Horse)
		appendNullable(bldr.Field(colAge).(*array.Int64Builder), row.Age)
		bldr.Field(colSex).(*array.StringBuilder).Append(row.Sex)
		bldr.Field(colWeight).(*array.StringBuilder).Append(row.Weight)
		bldr.Field(colJockey).(*array.StringBuilder).Append(row.Jockey)
		bldr.Field(colTrainer).(*array.StringBuilder).Append(row.Trainer)
		bldr.Field(colSire).(*array.StringBuilder).Append(row.Sire)
		bldr.Field(colDam).(*array.StringBuilder).Append(row.Dam)
		appendNullable(bldr.Field(colOR).(*array.Int64Builder), row.OfficialRating)
		appendNullable(bldr.Field(colRPR).(*array.Int64Builder), row.RPR)
		appendNullable(bldr.Field(colTS).(*array.Int64Builder), row.TopSpeed)
		bldr.Field(colPrize).(*array.StringBuilder).Append(row.PrizeRaw)
		bldr.Field(colPrizeCurrency).(*array.StringBuilder).Append(row.PrizeCurrency)
		bldr.Field(colWon).(*array.BooleanBuilder).Append(row.Won)
		bldr.Field(colDNF).(*array.BooleanBuilder).Append(row.DidNotFinish)
	}

	rec := bldr.NewRecord()
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		return eris.Wrap(err, "snapshot: new writer")
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return eris.Wrap(err, "snapshot: write record")
	}
	if err := fw.Close(); err != nil {
		return eris.Wrap(err, "snapshot: close writer")
	}
	return nil
}

func appendNullable(b *array.Int64Builder, v *int64) {
	if v == nil {
		b.AppendNull()
		return
	}
	b.Append(*v)
}

// Read loads a snapshot written by Write. Null positions in the nullable
// columns are restored as nil pointers.
func Read(path string) ([]model.ResultRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "snapshot: open %s", path)
	}
	defer f.Close()

	rdr, err := ipc.NewFileReader(f, ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		return nil, eris.Wrapf(err, "snapshot: read %s", path)
	}
	defer rdr.Close()

	if !rdr.Schema().Equal(Schema()) {
		return nil, eris.Errorf("snapshot: %s has schema %s, want %s", path, rdr.Schema(), Schema())
	}

	var rows []model.ResultRow
	for {
		rec, err := rdr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "snapshot: read record")
		}
		rows = append(rows, recordRows(rec)...)
	}
	return rows, nil
}

func recordRows(rec arrow.Record) []model.ResultRow {
	n := int(rec.NumRows())
	rows := make([]model.ResultRow, 0, n)

	raceID := rec.Column(colRaceID).(*array.Int64)
	date := rec.Column(colDate).(*array.String)
	course := rec.Column(colCourse).(*array.String)
	typ := rec.Column(colType).(*array.String)
	pos := rec.Column(colPos).(*array.Int64)
	draw := rec.Column(colDraw).(*array.Int64)
	horse := rec.Column(colHorse).(*array.String)
	age := rec.Column(colAge).(*array.Int64)
	sex := rec.Column(colSex).(*array.String)
	weight := rec.Column(colWeight).(*array.String)
	jockey := rec.Column(colJockey).(*array.String)
	trainer := rec.Column(colTrainer).(*array.String)
	sire := rec.Column(colSire).(*array.String)
	dam := rec.Column(colDam).(*array.String)
	or := rec.Column(colOR).(*array.Int64)
	rpr := rec.Column(colRPR).(*array.Int64)
	ts := rec.Column(colTS).(*array.Int64)
	prize := rec.Column(colPrize).(*array.String)
	prizeCcy := rec.Column(colPrizeCurrency).(*array.String)
	won := rec.Column(colWon).(*array.Boolean)
	dnf := rec.Column(colDNF).(*array.Boolean)

	for i := 0; i < n; i++ {
		rows = append(rows, model.ResultRow{
			RaceID:         raceID.Value(i),
			Date:           date.Value(i),
			Course:         course.Value(i),
			Type:           typ.Value(i),
			Position:       pos.Value(i),
			Draw:           nullableValue(draw, i),
			Horse:          horse.Value(i),
			Age:            nullableValue(age, i),
			Sex:            sex.Value(i),
			Weight:         weight.Value(i),
			Jockey:         jockey.Value(i),
			Trainer:        trainer.Value(i),
			Sire:           sire.Value(i),
			Dam:            dam.Value(i),
			OfficialRating: nullableValue(or, i),
			RPR:            nullableValue(rpr, i),
			TopSpeed:       nullableValue(ts, i),
			PrizeRaw:       prize.Value(i),
			PrizeCurrency:  prizeCcy.Value(i),
			Won:            won.Value(i),
			DidNotFinish:   dnf.Value(i),
		})
	}
	return rows
}

func nullableValue(arr *array.Int64, i int) *int64 {
	if arr.IsNull(i) {
		return nil
	}
	v := arr.Value(i)
	return &v
}
