package palette

import (
	"fmt"
	"image"
	"log"
	"math"
	"sort"

	"github.com/EdlinOrg/prominentcolor"
	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"palette-makeup-server/modules/common/utils"
)

const (
	MethodDominantColor  = "dominantcolor"
	MethodProminentColor = "prominentcolor"
	MethodKMeans         = "kmeans"

	// kmeans 샘플 상한 (큰 이미지는 격자 서브샘플링)
	maxKMeansSamples = 12000
)

// Extractor - 이미지에서 대표 색상 팔레트 추출 (빈도 순위 순)
type Extractor interface {
	Extract(img image.Image, count int) ([]utils.RGB, error)
	Method() string
}

// NewExtractor - 설정된 방식으로 Extractor 생성
// sampleSize 보다 큰 이미지는 추출 전에 축소한다
func NewExtractor(method string, sampleSize int) (Extractor, error) {
	base := sampler{sampleSize: sampleSize}
	switch method {
	case "", MethodDominantColor:
		return &dominantExtractor{base}, nil
	case MethodProminentColor:
		return &prominentExtractor{base}, nil
	case MethodKMeans:
		return &kmeansExtractor{base}, nil
	default:
		return nil, fmt.Errorf("unknown palette method %q", method)
	}
}

type sampler struct {
	sampleSize int
}

func (s sampler) prepare(img image.Image, count int) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}
	if count <= 0 {
		return nil, fmt.Errorf("palette color count must be positive, got %d", count)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("image has no pixels")
	}
	return utils.DownscaleForSampling(img, s.sampleSize), nil
}

// dominantExtractor - cenkalti/dominantcolor 가중치 순
type dominantExtractor struct{ sampler }

func (e *dominantExtractor) Method() string { return MethodDominantColor }

func (e *dominantExtractor) Extract(img image.Image, count int) ([]utils.RGB, error) {
	small, err := e.prepare(img, count)
	if err != nil {
		return nil, err
	}

	found := dominantcolor.FindWeight(small, count)
	if len(found) == 0 {
		return nil, fmt.Errorf("dominantcolor found no colors")
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].Weight > found[j].Weight })

	out := make([]utils.RGB, 0, len(found))
	for _, c := range found {
		out = append(out, utils.RGB{R: int(c.RGBA.R), G: int(c.RGBA.G), B: int(c.RGBA.B)})
	}
	return limit(out, count), nil
}

// prominentExtractor - EdlinOrg/prominentcolor K-means (픽셀 수 순)
type prominentExtractor struct{ sampler }

func (e *prominentExtractor) Method() string { return MethodProminentColor }

func (e *prominentExtractor) Extract(img image.Image, count int) ([]utils.RGB, error) {
	small, err := e.prepare(img, count)
	if err != nil {
		return nil, err
	}

	items, err := prominentcolor.KmeansWithAll(count, small, prominentcolor.ArgumentNoCropping, uint(prominentcolor.DefaultSize), nil)
	if err != nil {
		return nil, fmt.Errorf("prominentcolor kmeans failed: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("prominentcolor found no colors")
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Cnt > items[j].Cnt })

	out := make([]utils.RGB, 0, len(items))
	for _, it := range items {
		out = append(out, utils.RGB{R: clampChannel(int(it.Color.R)), G: clampChannel(int(it.Color.G)), B: clampChannel(int(it.Color.B))})
	}
	return limit(out, count), nil
}

// kmeansExtractor - muesli/kmeans 과분할 후 서로 다른 색을 크기 순으로
type kmeansExtractor struct{ sampler }

func (e *kmeansExtractor) Method() string { return MethodKMeans }

func (e *kmeansExtractor) Extract(img image.Image, count int) ([]utils.RGB, error) {
	small, err := e.prepare(img, count)
	if err != nil {
		return nil, err
	}

	dataset := observations(small)
	if len(dataset) == 0 {
		return nil, fmt.Errorf("image has no opaque pixels")
	}

	workK := min(max(count*4, count+2), len(dataset))
	cc, err := kmeans.New().Partition(dataset, workK)
	if err != nil {
		log.Printf("⚠️ [Palette] kmeans partition failed (k=%d), falling back to dominantcolor: %v", workK, err)
		return e.fallback(small, count)
	}

	out := rankClusters(cc, dataset)
	if len(out) == 0 {
		log.Printf("⚠️ [Palette] kmeans produced no colors (k=%d), falling back to dominantcolor", workK)
		return e.fallback(small, count)
	}
	return limit(out, count), nil
}

func (e *kmeansExtractor) fallback(img image.Image, count int) ([]utils.RGB, error) {
	return (&dominantExtractor{e.sampler}).Extract(img, count)
}

type rankedColor struct {
	rgb    utils.RGB
	hex    string
	coords clusters.Coordinates
	weight int
}

// rankClusters - 클러스터 평균색을 중복 없이 모은 뒤 픽셀 수 순으로 정렬
// 평균은 Cluster.Center 대신 관측값으로 다시 계산한다 (k=1 이면 Center 가 갱신되지 않음)
// 가중치는 각 픽셀을 가장 가까운 후보색에 다시 배정해서 센다
func rankClusters(cc clusters.Clusters, dataset clusters.Observations) []utils.RGB {
	seen := make(map[string]bool)
	var candidates []*rankedColor
	for _, c := range cc {
		mean, err := c.Observations.Center()
		if err != nil || len(mean) < 3 {
			continue
		}
		r, g, b := colorful.Color{R: mean[0], G: mean[1], B: mean[2]}.Clamped().RGB255()
		rgb := utils.RGB{R: int(r), G: int(g), B: int(b)}
		hex, err := rgb.Hex()
		if err != nil || seen[hex] {
			continue
		}
		seen[hex] = true
		candidates = append(candidates, &rankedColor{
			rgb:    rgb,
			hex:    hex,
			coords: clusters.Coordinates{float64(r) / 255.0, float64(g) / 255.0, float64(b) / 255.0},
		})
	}
	if len(candidates) == 0 {
		return nil
	}

	for _, o := range dataset {
		p := o.Coordinates()
		best, bestDist := 0, math.Inf(1)
		for i, cand := range candidates {
			if d := cand.coords.Distance(p); d < bestDist {
				best, bestDist = i, d
			}
		}
		candidates[best].weight++
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].weight != candidates[j].weight {
			return candidates[i].weight > candidates[j].weight
		}
		return candidates[i].hex < candidates[j].hex
	})

	out := make([]utils.RGB, 0, len(candidates))
	for _, cand := range candidates {
		if cand.weight == 0 {
			continue
		}
		out = append(out, cand.rgb)
	}
	return out
}

// observations - 불투명 픽셀을 [0,1] RGB 좌표로 수집
func observations(img image.Image) clusters.Observations {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	step := 1
	if width*height > maxKMeansSamples {
		step = int(math.Sqrt(float64(width*height)/float64(maxKMeansSamples))) + 1
	}

	dataset := make(clusters.Observations, 0, min(width*height, maxKMeansSamples))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r16, g16, b16, a16 := img.At(x, y).RGBA()
			if a16 == 0 {
				continue
			}
			dataset = append(dataset, clusters.Coordinates{
				float64(r16) / 65535.0,
				float64(g16) / 65535.0,
				float64(b16) / 65535.0,
			})
		}
	}
	return dataset
}

func limit(colors []utils.RGB, count int) []utils.RGB {
	if len(colors) > count {
		return colors[:count]
	}
	return colors
}

func clampChannel(v int) int {
	return max(0, min(255, v))
}
