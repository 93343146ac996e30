package image

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

// placeholderPNG 返回一张 1×1 中性灰 PNG，作为全部后端耗尽时的最小有效资产。
func placeholderPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		// 1×1 RGBA 编码不会失败；兜底返回空 PNG 头以外的内容没有意义
		return nil
	}
	return buf.Bytes()
}
