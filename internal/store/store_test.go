package store

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/petermazzocco/water-quality-api/internal/apperrors"
	"github.com/petermazzocco/water-quality-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	gormlogger "gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name), gormlogger.Discard)
	require.NoError(t, err)
	// one connection keeps the shared in-memory database free of table locks
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	s := New(db)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func ptr(f float64) *float64 { return &f }

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedLocation(t *testing.T, s *Store) *models.Location {
	t.Helper()
	l := &models.Location{LocationName: "Test Location", Latitude: ptr(0), Longitude: ptr(0)}
	require.NoError(t, s.CreateLocation(context.Background(), l))
	return l
}

func seedUser(t *testing.T, s *Store, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", Password: "hash"}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestWithForeignKeys(t *testing.T) {
	assert.Equal(t, "water.sqlite?_foreign_keys=1", withForeignKeys("water.sqlite"))
	assert.Equal(t, "file:x?mode=memory&_foreign_keys=1", withForeignKeys("file:x?mode=memory"))
	assert.Equal(t, "file:x?_fk=1", withForeignKeys("file:x?_fk=1"))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "dsn", gormlogger.Discard)
	assert.Error(t, err)
}

func TestStore_Ping(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestCreateUser_Unique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "newuser")

	err := s.CreateUser(ctx, &models.User{Username: "newuser", Email: "other@example.com", Password: "x"})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)

	err = s.CreateUser(ctx, &models.User{Username: "other", Email: "newuser@example.com", Password: "x"})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestUserLookups(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "newuser")

	got, err := s.UserByUsername(ctx, "newuser")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = s.UserByEmail(ctx, "newuser@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = s.UserByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := seedUser(t, s, "newuser")
	other := seedUser(t, s, "other")

	company := "Acme Water"
	require.NoError(t, s.UpdateUser(ctx, u, map[string]any{"company": company, "email": "renamed@example.com"}))
	assert.Equal(t, "renamed@example.com", u.Email)
	require.NotNil(t, u.Company)
	assert.Equal(t, company, *u.Company)

	err := s.UpdateUser(ctx, u, map[string]any{"email": other.Email})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)

	require.NoError(t, s.UpdateUser(ctx, u, nil))
	assert.Equal(t, "renamed@example.com", u.Email)
}

func TestDeleteUser_RemovesOwnedRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	loc := seedLocation(t, s)
	u := seedUser(t, s, "newuser")
	keep := seedUser(t, s, "keeper")

	up := &models.UploadedData{UserID: u.ID, LocationID: loc.ID, Data: `{"feature1":1}`}
	forecast := `{"prediction":0.75}`
	v, err := s.RecordUpload(ctx, up, &forecast)
	require.NoError(t, err)
	require.NotNil(t, v)
	kept := &models.UploadedData{UserID: keep.ID, LocationID: loc.ID, Data: `{}`}
	_, err = s.RecordUpload(ctx, kept, nil)
	require.NoError(t, err)

	require.NoError(t, s.DeleteUser(ctx, u.ID))

	_, err = s.UserByUsername(ctx, "newuser")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = s.VisualisationForUpload(ctx, up.DataID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	uploads, err := s.UploadsForUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, uploads)

	uploads, err = s.UploadsForUser(ctx, keep.ID)
	require.NoError(t, err)
	assert.Len(t, uploads, 1)

	assert.ErrorIs(t, s.DeleteUser(ctx, u.ID), apperrors.ErrNotFound)
}

func TestUpload_RequiresExistingLocation(t *testing.T) {
	s := newTestStore(t)
	u := seedUser(t, s, "newuser")

	_, err := s.RecordUpload(context.Background(), &models.UploadedData{UserID: u.ID, LocationID: 999, Data: `{}`}, nil)
	assert.Error(t, err)
}

func TestRecordUpload(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	loc := seedLocation(t, s)
	u := seedUser(t, s, "newuser")
	other := seedUser(t, s, "other")

	forecast := `{"prediction":0.75}`
	up := &models.UploadedData{UserID: u.ID, LocationID: loc.ID, Data: `{"parameter":"value"}`}
	v, err := s.RecordUpload(ctx, up, &forecast)
	require.NoError(t, err)
	assert.NotZero(t, up.DataID)
	assert.Equal(t, up.DataID, v.UploadID)

	got, err := s.VisualisationForUpload(ctx, up.DataID)
	require.NoError(t, err)
	assert.Equal(t, forecast, *got.ForecastData)
	assert.Equal(t, loc.ID, got.LocationID)

	mine, err := s.UploadByID(ctx, u.ID, up.DataID)
	require.NoError(t, err)
	assert.Equal(t, `{"parameter":"value"}`, mine.Data)

	_, err = s.UploadByID(ctx, other.ID, up.DataID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// listed newest first
	_, err = s.RecordUpload(ctx, &models.UploadedData{UserID: u.ID, LocationID: loc.ID, Data: `{}`}, nil)
	require.NoError(t, err)
	uploads, err := s.UploadsForUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, uploads, 2)
	assert.Greater(t, uploads[0].DataID, uploads[1].DataID)
}

func TestLocations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := seedLocation(t, s)
	b := seedLocation(t, s)

	got, err := s.LocationByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Location", got.LocationName)

	_, err = s.LocationByID(ctx, 999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	all, err := s.ListLocations(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, a.ID, all[0].ID)
}

func TestUpdateWaterQuality_Partial(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	loc := seedLocation(t, s)
	rec := &models.WaterQualityData{
		LocationID:  loc.ID,
		Date:        datatypes.Date(day("2022-02-21")),
		SpecCondMax: ptr(0),
		TempMean:    ptr(12.5),
	}
	require.NoError(t, s.CreateWaterQuality(ctx, rec))

	got, err := s.UpdateWaterQuality(ctx, loc.ID, day("2022-02-21"), map[string]any{
		"spec_cond_max": 1.23,
		"ph_max":        7.5,
	})
	require.NoError(t, err)
	require.NotNil(t, got.SpecCondMax)
	require.NotNil(t, got.PhMax)
	assert.Equal(t, 1.23, *got.SpecCondMax)
	assert.Equal(t, 7.5, *got.PhMax)
	require.NotNil(t, got.TempMean)
	assert.Equal(t, 12.5, *got.TempMean)
	assert.Nil(t, got.PhMin)

	// explicit null clears a single field
	got, err = s.UpdateWaterQuality(ctx, loc.ID, day("2022-02-21"), map[string]any{"temp_mean": nil})
	require.NoError(t, err)
	assert.Nil(t, got.TempMean)
	assert.Equal(t, 7.5, *got.PhMax)

	before, err := s.WaterQuality(ctx, loc.ID, day("2022-02-21"))
	require.NoError(t, err)
	after, err := s.UpdateWaterQuality(ctx, loc.ID, day("2022-02-21"), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestUpdateWaterQuality_Errors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	loc := seedLocation(t, s)
	require.NoError(t, s.CreateWaterQuality(ctx, &models.WaterQualityData{
		LocationID: loc.ID,
		Date:       datatypes.Date(day("2022-02-21")),
	}))

	_, err := s.UpdateWaterQuality(ctx, loc.ID, day("2022-02-22"), map[string]any{"ph_max": 7.0})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = s.UpdateWaterQuality(ctx, loc.ID, day("2022-02-21"), map[string]any{"location_id": 2})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrNotFound)
}

func TestWaterQualityForLocation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	loc := seedLocation(t, s)
	other := seedLocation(t, s)

	for _, d := range []string{"2022-03-01", "2022-01-15", "2022-02-21"} {
		require.NoError(t, s.CreateWaterQuality(ctx, &models.WaterQualityData{
			LocationID: loc.ID, Date: datatypes.Date(day(d)),
		}))
	}
	require.NoError(t, s.CreateWaterQuality(ctx, &models.WaterQualityData{
		LocationID: other.ID, Date: datatypes.Date(day("2022-01-01")),
	}))

	records, err := s.WaterQualityForLocation(ctx, loc.ID)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, day("2022-01-15"), time.Time(records[0].Date).UTC())
	assert.Equal(t, day("2022-03-01"), time.Time(records[2].Date).UTC())

	_, err = s.WaterQuality(ctx, other.ID, day("2022-02-21"))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestWaterQuality_RequiresExistingLocation(t *testing.T) {
	s := newTestStore(t)
	err := s.CreateWaterQuality(context.Background(), &models.WaterQualityData{
		LocationID: 42, Date: datatypes.Date(day("2022-02-21")),
	})
	assert.Error(t, err)
}

func TestOpen_ForeignKeysReferenceParents(t *testing.T) {
	s := newTestStore(t)

	type foreignKey struct {
		Table string
		From  string
		To    string
	}
	keys := func(table string) []foreignKey {
		var fks []foreignKey
		require.NoError(t, s.db.Raw(`SELECT "table", "from", "to" FROM pragma_foreign_key_list(?)`, table).Scan(&fks).Error)
		return fks
	}

	assert.Empty(t, keys("users"))
	assert.Empty(t, keys("locations"))
	assert.ElementsMatch(t, []foreignKey{
		{Table: "users", From: "user_id", To: "user_id"},
		{Table: "locations", From: "location_id", To: "location_id"},
	}, keys("uploaded_data"))
	assert.ElementsMatch(t, []foreignKey{
		{Table: "uploaded_data", From: "upload_id", To: "data_id"},
		{Table: "locations", From: "location_id", To: "location_id"},
	}, keys("visualisation_data"))
	assert.ElementsMatch(t, []foreignKey{
		{Table: "locations", From: "location_id", To: "location_id"},
	}, keys("water_quality_data"))
}

func TestSetUploadObjectKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	loc := seedLocation(t, s)
	u := seedUser(t, s, "newuser")

	up := &models.UploadedData{UserID: u.ID, LocationID: loc.ID, Data: `{}`}
	_, err := s.RecordUpload(ctx, up, nil)
	require.NoError(t, err)
	assert.Nil(t, up.ObjectKey)

	require.NoError(t, s.SetUploadObjectKey(ctx, up.DataID, "uploads/1/a.json"))
	got, err := s.UploadByID(ctx, u.ID, up.DataID)
	require.NoError(t, err)
	require.NotNil(t, got.ObjectKey)
	assert.Equal(t, "uploads/1/a.json", *got.ObjectKey)

	assert.ErrorIs(t, s.SetUploadObjectKey(ctx, 999, "uploads/1/b.json"), apperrors.ErrNotFound)
}
