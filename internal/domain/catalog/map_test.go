package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "modernc.org/sqlite"
)

func setupCatalogTest(t *testing.T) (*gorm.DB, *Service) {
	t.Helper()
	dsn := fmt.Sprintf("file:catalog_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", DSN: dsn}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
	)
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := db.AutoMigrate(&Languoid{}, &Collection{}, &Item{}, &Collaborator{}, &ItemCollaborator{}); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	return db, NewService(NewRepository(db))
}

func point(lat, lon float64) (*float64, *float64) {
	return &lat, &lon
}

func seedLanguoid(t *testing.T, svc *Service, code string, lat, lon *float64) *Languoid {
	t.Helper()
	l := &Languoid{Code: code, Name: "Languoid " + code, Level: LevelLanguage, Latitude: lat, Longitude: lon}
	if err := svc.CreateLanguoid(context.Background(), l); err != nil {
		t.Fatalf("failed to seed languoid %s: %v", code, err)
	}
	return l
}

func TestMapLanguoidsBoundingBox(t *testing.T) {
	_, svc := setupCatalogTest(t)
	ctx := context.Background()

	inLat, inLon := point(-14.1, 129.5)
	inside := seedLanguoid(t, svc, "in1", inLat, inLon)
	outLat, outLon := point(40.0, 129.5)
	seedLanguoid(t, svc, "out1", outLat, outLon)
	seedLanguoid(t, svc, "nocoords", nil, nil)

	got, err := svc.MapLanguoids(ctx, BoundingBox{MinLat: -30, MaxLat: 0, MinLon: 120, MaxLon: 140}, 10)
	if err != nil {
		t.Fatalf("map query failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != inside.ID {
		t.Fatalf("expected only the in-box languoid, got %d rows", len(got))
	}
}

func TestMapLanguoidsAntimeridianWrap(t *testing.T) {
	_, svc := setupCatalogTest(t)
	ctx := context.Background()

	eLat, eLon := point(-17.8, 178.0)
	east := seedLanguoid(t, svc, "east", eLat, eLon)
	wLat, wLon := point(-15.0, -175.0)
	west := seedLanguoid(t, svc, "west", wLat, wLon)
	mLat, mLon := point(-16.0, 0.0)
	seedLanguoid(t, svc, "middle", mLat, mLon)

	// MinLon > MaxLon: the viewport wraps around the antimeridian.
	got, err := svc.MapLanguoids(ctx, BoundingBox{MinLat: -30, MaxLat: 0, MinLon: 170, MaxLon: -170}, 10)
	if err != nil {
		t.Fatalf("map query failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 languoids on either side of the antimeridian, got %d", len(got))
	}
	if got[0].ID != east.ID || got[1].ID != west.ID {
		t.Fatalf("unexpected rows: %v, %v", got[0].Code, got[1].Code)
	}
}

func TestMapLanguoidsDensitySampling(t *testing.T) {
	_, svc := setupCatalogTest(t)
	ctx := context.Background()

	for i := 0; i < 16; i++ {
		lat, lon := point(-10.0, 120.0+float64(i))
		seedLanguoid(t, svc, fmt.Sprintf("smp%02d", i), lat, lon)
	}
	box := BoundingBox{MinLat: -20, MaxLat: 0, MinLon: 110, MaxLon: 140}

	full, err := svc.MapLanguoids(ctx, box, fullDetailZoom)
	if err != nil {
		t.Fatalf("full-detail query failed: %v", err)
	}
	if len(full) != 16 {
		t.Fatalf("expected all 16 rows at full detail, got %d", len(full))
	}

	// zoom 5 keeps every 2nd row, zoom 4 every 4th.
	for _, tc := range []struct {
		zoom, want int
	}{
		{5, 8},
		{4, 4},
		{3, 2},
	} {
		got, err := svc.MapLanguoids(ctx, box, tc.zoom)
		if err != nil {
			t.Fatalf("zoom %d query failed: %v", tc.zoom, err)
		}
		if len(got) != tc.want {
			t.Fatalf("zoom %d: expected %d rows, got %d", tc.zoom, tc.want, len(got))
		}
	}

	// Sampling is deterministic: the same query returns the same rows.
	a, _ := svc.MapLanguoids(ctx, box, 4)
	b, _ := svc.MapLanguoids(ctx, box, 4)
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Fatal("density sampling must be stable across requests")
		}
	}
}

func TestMapLanguoidsRejectsInvalidBox(t *testing.T) {
	_, svc := setupCatalogTest(t)

	cases := []BoundingBox{
		{MinLat: 10, MaxLat: -10, MinLon: 0, MaxLon: 10}, // inverted latitude
		{MinLat: -100, MaxLat: 0, MinLon: 0, MaxLon: 10},
		{MinLat: 0, MaxLat: 10, MinLon: -200, MaxLon: 10},
	}
	for i, box := range cases {
		if _, err := svc.MapLanguoids(context.Background(), box, 10); !errors.Is(err, ErrInvalidBoundingBox) {
			t.Fatalf("case %d: expected ErrInvalidBoundingBox, got %v", i, err)
		}
	}
}

func TestSamplingStep(t *testing.T) {
	for _, tc := range []struct {
		zoom, want int
	}{
		{-3, 64},
		{0, 64},
		{3, 8},
		{5, 2},
		{6, 1},
		{12, 1},
	} {
		if got := samplingStep(tc.zoom); got != tc.want {
			t.Fatalf("zoom %d: expected step %d, got %d", tc.zoom, tc.want, got)
		}
	}
}
