package feature

import (
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEncodeStage1(t *testing.T) {
	// 2024-07-04 is a Thursday.
	f := EncodeStage1(date(2024, time.July, 4), 14, "Manhattan", 30, "Female")

	assert.Equal(t, "MANHATTAN", f.Borough)
	assert.Equal(t, 14, f.Hour)
	assert.Equal(t, 3, f.Weekday)
	assert.Equal(t, 7, f.Month)
	assert.False(t, f.IsWeekend)
	assert.False(t, f.IsNight)
	assert.Equal(t, "F", f.VictimSex)
	assert.Equal(t, "25-44", f.VictimAgeGroup)
	assert.Equal(t, "U", f.SuspectSex)
	assert.Equal(t, "UNKNOWN", f.SuspectAgeGroup)
}

func TestEncodeStage1Weekday(t *testing.T) {
	tests := []struct {
		day       time.Time
		weekday   int
		isWeekend bool
	}{
		{date(2024, time.July, 1), 0, false}, // Monday
		{date(2024, time.July, 5), 4, false}, // Friday
		{date(2024, time.July, 6), 5, true},  // Saturday
		{date(2024, time.July, 7), 6, true},  // Sunday
	}
	for _, tt := range tests {
		f := EncodeStage1(tt.day, 12, "QUEENS", 30, "Male")
		assert.Equal(t, tt.weekday, f.Weekday, tt.day.Format("2006-01-02"))
		assert.Equal(t, tt.isWeekend, f.IsWeekend, tt.day.Format("2006-01-02"))
	}
}

func TestEncodeStage1Night(t *testing.T) {
	tests := []struct {
		hour  int
		night bool
	}{
		{0, true}, {6, true}, {7, false}, {19, false}, {20, true}, {23, true},
	}
	for _, tt := range tests {
		f := EncodeStage1(date(2024, time.July, 1), tt.hour, "BRONX", 30, "Male")
		assert.Equal(t, tt.night, f.IsNight, "hour %d", tt.hour)
	}
}

func TestEncodeStage1HourClamp(t *testing.T) {
	f := EncodeStage1(date(2024, time.July, 1), 24, "BRONX", 30, "Male")
	assert.Equal(t, 0, f.Hour)
	assert.True(t, f.IsNight)
}

func TestEncodeStage1Gender(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"Male", "M"}, {"male", "M"}, {"M", "M"}, {"m", "M"},
		{"Female", "F"}, {"FEMALE", "F"}, {"f", "F"},
		{"nonbinary", "U"}, {"", "U"},
	}
	for _, tt := range tests {
		f := EncodeStage1(date(2024, time.July, 1), 12, "BRONX", 30, tt.in)
		assert.Equal(t, tt.out, f.VictimSex, "gender %q", tt.in)
	}
}

func TestStage1AgeGroups(t *testing.T) {
	tests := []struct {
		age   int
		group string
	}{
		{0, "<18"}, {17, "<18"}, {18, "18-24"}, {24, "18-24"},
		{25, "25-44"}, {44, "25-44"}, {45, "45-64"}, {64, "45-64"},
		{65, "65+"}, {120, "65+"},
	}
	for _, tt := range tests {
		f := EncodeStage1(date(2024, time.July, 1), 12, "BRONX", tt.age, "Male")
		assert.Equal(t, tt.group, f.VictimAgeGroup, "age %d", tt.age)
	}
}

func TestStage1Fields(t *testing.T) {
	f := EncodeStage1(date(2024, time.July, 4), 14, "Manhattan", 30, "Female")
	fields := f.Fields()

	require.Len(t, fields, 10)
	assert.Equal(t, "MANHATTAN", fields["BORO_NM"])
	assert.Equal(t, 14, fields["hour"])
	assert.Equal(t, false, fields["is_weekend"])
	assert.Equal(t, "UNKNOWN", fields["SUSP_AGE_GROUP"])
}

// TestEncodeStage2Golden pins the full 36-column vector against the training
// schema. Any drift here silently corrupts predictions, so the expectation
// is written out column by column.
func TestEncodeStage2Golden(t *testing.T) {
	vec, err := EncodeStage2(
		date(2024, time.July, 4), 14, 40.7831, -73.9712,
		"In park", 30, "WHITE", "Female", "22", "Manhattan",
	)
	require.NoError(t, err)
	require.Len(t, vec, len(Stage2Columns))

	want := []float64{
		2024, 7, 4, 14, 40.7831, -73.9712, 1, 22, // year..ADDR_PCT_CD
		1, 0, 0, // place bits
		0, 0, 1, 0, 0, 0, // borough one-hot (MANHATTAN)
		0, 1, 0, 0, 0, 0, // age one-hot (25-44)
		0, 0, 0, 0, 0, 0, 1, 0, // race one-hot (WHITE)
		0, 0, 1, 0, 0, // sex one-hot (F)
	}
	assert.Equal(t, want, vec)
}

func TestEncodeStage2FixedLength(t *testing.T) {
	// Every categorical branch missing still yields the full-width vector.
	vec, err := EncodeStage2(
		date(2024, time.January, 1), 3, 40.6, -74.0,
		"somewhere else", 200, "MARTIAN", "other", "1", "YONKERS",
	)
	require.NoError(t, err)
	require.Len(t, vec, 36)

	// Place bits all zero.
	assert.Equal(t, []float64{0, 0, 0}, vec[8:11])
	// Borough unknown bucket set.
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 1}, vec[11:17])
	// Race columns all zero.
	assert.Equal(t, make([]float64, 8), vec[23:31])
	// Sex columns all zero.
	assert.Equal(t, make([]float64, 5), vec[31:36])
}

func TestEncodeStage2AgeBuckets(t *testing.T) {
	bucket := func(age int) []float64 {
		vec, err := EncodeStage2(date(2024, time.July, 4), 12, 40.7, -73.9,
			"In park", age, "WHITE", "Male", "1", "BRONX")
		require.NoError(t, err)
		return vec[17:23]
	}

	assert.Equal(t, []float64{0, 0, 0, 0, 1, 0}, bucket(17))
	assert.Equal(t, []float64{1, 0, 0, 0, 0, 0}, bucket(18))
	assert.Equal(t, []float64{1, 0, 0, 0, 0, 0}, bucket(24))
	assert.Equal(t, []float64{0, 1, 0, 0, 0, 0}, bucket(25))
	assert.Equal(t, []float64{0, 0, 1, 0, 0, 0}, bucket(64))
	assert.Equal(t, []float64{0, 0, 0, 1, 0, 0}, bucket(65))
}

func TestEncodeStage2GenderCaseSensitive(t *testing.T) {
	sexCols := func(gender string) []float64 {
		vec, err := EncodeStage2(date(2024, time.July, 4), 12, 40.7, -73.9,
			"In park", 30, "WHITE", gender, "1", "BRONX")
		require.NoError(t, err)
		return vec[31:36]
	}

	assert.Equal(t, []float64{0, 0, 1, 0, 0}, sexCols("Female"))
	assert.Equal(t, []float64{0, 0, 0, 1, 0}, sexCols("Male"))
	// Unlike stage 1, lowercase does not match.
	assert.Equal(t, []float64{0, 0, 0, 0, 0}, sexCols("female"))
}

func TestEncodeStage2HourClamp(t *testing.T) {
	vec, err := EncodeStage2(date(2024, time.July, 4), 24, 40.7, -73.9,
		"In park", 30, "WHITE", "Male", "1", "BRONX")
	require.NoError(t, err)
	assert.Equal(t, 0.0, vec[3])
}

func TestEncodeStage2InvalidPrecinct(t *testing.T) {
	_, err := EncodeStage2(date(2024, time.July, 4), 12, 40.7, -73.9,
		"In park", 30, "WHITE", "Male", "downtown", "BRONX")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrInvalidInput))
}

func TestEncodeStage2PrecinctFloat(t *testing.T) {
	// Boundary attributes sometimes carry float-formatted ids.
	vec, err := EncodeStage2(date(2024, time.July, 4), 12, 40.7, -73.9,
		"In park", 30, "WHITE", "Male", "22.0", "BRONX")
	require.NoError(t, err)
	assert.Equal(t, 22.0, vec[7])
}
