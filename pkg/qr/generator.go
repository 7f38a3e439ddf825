package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// GeneratorInterface рендерит PNG с кодом актива. Вынесено за интерфейс,
// чтобы в тестах движок не трогал диск.
type GeneratorInterface interface {
	Render(assetName, assetCode string) ([]byte, error)
}

type Generator struct {
	size int
}

func NewGenerator() GeneratorInterface {
	return &Generator{size: 256}
}

func (g *Generator) Render(assetName, assetCode string) ([]byte, error) {
	payload := fmt.Sprintf("Asset:%s,Code:%s", assetName, assetCode)
	return qrcode.Encode(payload, qrcode.Medium, g.size)
}
