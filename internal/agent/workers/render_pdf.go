// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package workers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/unidoc/unipdf/v3/creator"
	"github.com/unidoc/unipdf/v3/model"
)

// Renderer 把 markdown 简历草稿渲染为 PDF 文件
type Renderer struct {
	outputDir string
}

// NewRenderer 创建渲染 worker，outputDir 空则默认 ./out
func NewRenderer(outputDir string) *Renderer {
	if outputDir == "" {
		outputDir = "out"
	}
	return &Renderer{outputDir: outputDir}
}

// Render 渲染 markdown 为 PDF，返回输出文件路径。
// 只处理简历场景需要的子集：一二级标题、列表项、正文。
func (w *Renderer) Render(markdown, fileName string) (string, error) {
	defer observeWorker("render_pdf")()

	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	if fileName == "" {
		fileName = "resume.pdf"
	}
	if !strings.HasSuffix(fileName, ".pdf") {
		fileName += ".pdf"
	}

	regular, err := model.NewStandard14Font(model.HelveticaName)
	if err != nil {
		return "", fmt.Errorf("load font: %w", err)
	}
	bold, err := model.NewStandard14Font(model.HelveticaBoldName)
	if err != nil {
		return "", fmt.Errorf("load font: %w", err)
	}

	c := creator.New()
	c.SetPageMargins(50, 50, 50, 50)

	for _, line := range strings.Split(markdown, "\n") {
		text, font, size, spacing := styleLine(line, regular, bold)
		if text == "" {
			continue
		}
		p := c.NewParagraph(text)
		p.SetFont(font)
		p.SetFontSize(size)
		p.SetMargins(0, 0, spacing, 2)
		if err := c.Draw(p); err != nil {
			return "", fmt.Errorf("draw paragraph: %w", err)
		}
	}

	outPath := filepath.Join(w.outputDir, fileName)
	if err := c.WriteToFile(outPath); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}
	return outPath, nil
}

func styleLine(line string, regular, bold *model.PdfFont) (string, *model.PdfFont, float64, float64) {
	trimmed := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(trimmed, "## "):
		return stripInline(strings.TrimPrefix(trimmed, "## ")), bold, 13, 8
	case strings.HasPrefix(trimmed, "# "):
		return stripInline(strings.TrimPrefix(trimmed, "# ")), bold, 17, 10
	case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "):
		return "• " + stripInline(trimmed[2:]), regular, 10, 1
	default:
		return stripInline(trimmed), regular, 10, 2
	}
}

// stripInline 去掉加粗/斜体标记，PDF 段落不做富文本
func stripInline(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	return strings.TrimSpace(s)
}
