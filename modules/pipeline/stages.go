package pipeline

import (
	"context"
	"log"

	"palette-makeup-server/modules/caption"
	"palette-makeup-server/modules/common/utils"
	"palette-makeup-server/modules/generation"
	"palette-makeup-server/modules/palette"
)

type chainRequest struct {
	token      uint64
	imageData  []byte
	imageMime  string
	hexPalette []string
	colorNames []string
}

// runAnalysis - decode → 팔레트 추출 → 이름 조회
func (c *Controller) runAnalysis(ctx context.Context, token uint64, data []byte) {
	defer c.wg.Done()

	img, _, err := utils.DecodeImage(data)
	if err != nil {
		log.Printf("❌ [Pipeline %s] Decode failed: %v", c.deps.ID, err)
		c.applyAnalysis(token, func() {
			c.analysis = AnalysisDecodeFailed
			c.analysisErr = MsgDecodeFailed
		})
		return
	}

	res, err := palette.Analyze(c.deps.Extractor, img, c.deps.ColorCount)
	if err != nil {
		log.Printf("❌ [Pipeline %s] Palette extraction failed: %v", c.deps.ID, err)
		c.applyAnalysis(token, func() {
			c.analysis = AnalysisDecodeFailed
			c.analysisErr = err.Error()
		})
		return
	}

	nextState := AnalysisNaming
	if c.deps.Namer == nil {
		nextState = AnalysisReady
	}
	if !c.applyAnalysis(token, func() {
		c.palette = res.Colors
		c.hexPalette = res.Hex
		c.analysis = nextState
	}) || c.deps.Namer == nil {
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, c.deps.Timeout)
	defer cancel()

	names, err := c.deps.Namer.NameColors(callCtx, res.Hex)
	if err != nil {
		log.Printf("❌ [Pipeline %s] Color naming failed: %v", c.deps.ID, err)
		c.applyAnalysis(token, func() {
			c.analysis = AnalysisNamingFailed
			c.analysisErr = MsgNamingFailed
		})
		return
	}
	if len(names) != len(res.Hex) {
		log.Printf("❌ [Pipeline %s] Naming returned %d names for %d colors", c.deps.ID, len(names), len(res.Hex))
		c.applyAnalysis(token, func() {
			c.analysis = AnalysisNamingFailed
			c.analysisErr = MsgNamingFailed
		})
		return
	}

	c.applyAnalysis(token, func() {
		c.colorNames = names
		c.analysis = AnalysisReady
	})
}

// runChain - 캡션 → 프롬프트 → 이미지 생성 (엄격한 순서)
func (c *Controller) runChain(ctx context.Context, req chainRequest) {
	defer c.wg.Done()

	captionCtx, cancelCaption := context.WithTimeout(ctx, c.deps.Timeout)
	text, err := c.deps.Captioner.Caption(captionCtx, caption.Input{Data: req.imageData, MimeType: req.imageMime})
	cancelCaption()
	if err != nil {
		log.Printf("❌ [Pipeline %s] Caption failed (generation #%d): %v", c.deps.ID, req.token, err)
		c.applyGeneration(req.token, func() {
			c.generation = GenerationCaptionFailed
			c.generationErr = MsgCaptionFailed
		})
		return
	}
	if !c.applyGeneration(req.token, func() {
		c.caption = text
		c.generation = GenerationCaptionReady
	}) {
		return
	}

	prompt := generation.BuildPrompt(text, req.hexPalette)
	if !c.applyGeneration(req.token, func() {
		c.prompt = prompt
		c.generation = GenerationPromptBuilt
	}) {
		return
	}
	if !c.applyGeneration(req.token, func() {
		c.generation = GenerationImageInFlight
	}) {
		return
	}

	genCtx, cancelGen := context.WithTimeout(ctx, c.deps.Timeout)
	out, err := c.deps.Generator.Generate(genCtx, prompt)
	cancelGen()
	if err != nil {
		log.Printf("❌ [Pipeline %s] Image generation failed (generation #%d): %v", c.deps.ID, req.token, err)
		c.applyGeneration(req.token, func() {
			c.generation = GenerationImageFailed
			c.generationErr = MsgImageFailed
		})
		return
	}

	applied := c.applyGeneration(req.token, func() {
		result := &ResultImage{URL: out.URL}
		if len(out.Data) > 0 {
			h := c.deps.Handles.Issue(out.Data, out.MimeType)
			result = &ResultImage{URL: h.URL, HandleID: h.ID, MimeType: h.MimeType}
		}
		c.result = result
		c.generation = GenerationImageReady
	})
	if !applied {
		return
	}

	log.Printf("✅ [Pipeline %s] Generation #%d complete", c.deps.ID, req.token)
	if c.deps.OnResult != nil {
		c.deps.OnResult(ResultEvent{
			ControllerID: c.deps.ID,
			Caption:      text,
			Prompt:       prompt,
			HexPalette:   req.hexPalette,
			ColorNames:   req.colorNames,
			Output:       out,
		})
	}
}

// applyAnalysis - 업로드 토큰이 현재 값일 때만 반영
func (c *Controller) applyAnalysis(token uint64, mutate func()) bool {
	c.mu.Lock()
	if c.closed || token != c.uploadToken {
		c.mu.Unlock()
		log.Printf("⏭️ [Pipeline %s] Discarding stale analysis result (upload #%d)", c.deps.ID, token)
		return false
	}
	mutate()
	snap := c.touchLocked()
	c.mu.Unlock()

	c.notify(snap)
	return true
}

// applyGeneration - 생성 토큰이 현재 값일 때만 반영
func (c *Controller) applyGeneration(token uint64, mutate func()) bool {
	c.mu.Lock()
	if c.closed || token != c.generationToken {
		c.mu.Unlock()
		log.Printf("⏭️ [Pipeline %s] Discarding stale generation result (generation #%d)", c.deps.ID, token)
		return false
	}
	mutate()
	snap := c.touchLocked()
	c.mu.Unlock()

	c.notify(snap)
	return true
}
