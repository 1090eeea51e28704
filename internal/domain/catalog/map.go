package catalog

import "context"

// Zoom levels below this get density sampling; at fullDetailZoom and above
// every in-box languoid is returned.
const fullDetailZoom = 6

// MapLanguoids returns languoids inside the viewport, thinned at low zoom so
// world-scale views stay light. Sampling keeps every k-th row of the
// id-ordered result with k = 2^(fullDetailZoom - zoom), which is stable for
// a fixed dataset across requests.
func (s *Service) MapLanguoids(ctx context.Context, box BoundingBox, zoom int) ([]Languoid, error) {
	if box.MinLat > box.MaxLat || box.MinLat < -90 || box.MaxLat > 90 {
		return nil, ErrInvalidBoundingBox
	}
	if box.MinLon < -180 || box.MinLon > 180 || box.MaxLon < -180 || box.MaxLon > 180 {
		return nil, ErrInvalidBoundingBox
	}

	rows, err := s.repo.ListLanguoidsInBox(ctx, box)
	if err != nil {
		return nil, err
	}

	k := samplingStep(zoom)
	if k <= 1 {
		return rows, nil
	}

	out := make([]Languoid, 0, len(rows)/k+1)
	for i, l := range rows {
		if i%k == 0 {
			out = append(out, l)
		}
	}
	return out, nil
}

func samplingStep(zoom int) int {
	if zoom >= fullDetailZoom {
		return 1
	}
	if zoom < 0 {
		zoom = 0
	}
	return 1 << uint(fullDetailZoom-zoom)
}
