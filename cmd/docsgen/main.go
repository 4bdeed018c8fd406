// Генерация документации об ошибках API в формате Markdown.
// Разбирает файл с определениями apierrors.DefinedError и строит таблицу кодов, HTTP-статусов и сообщений.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"log/slog"
	"os"
	"strconv"

	md "github.com/nao1215/markdown"
)

// Пример запуска: go run ./cmd/docsgen -src internal/docedit/apierrors/apierrors.go -out docs/api_errors.md
func main() {
	errorsFile := flag.String("src", "internal/docedit/apierrors/apierrors.go", "Path of apierrors.go")
	outputMd := flag.String("out", "api_errors.md", "Path to output md")
	flag.Parse()

	slog.Info("Generate api errors docs", "src", *errorsFile, "out", *outputMd)

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, *errorsFile, nil, 0)
	if err != nil {
		slog.Error("Parse errors file", "err", err)
		os.Exit(1)
	}

	out, err := os.Create(*outputMd)
	if err != nil {
		slog.Error("Create output file", "err", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := build(out, getRows(f)); err != nil {
		slog.Error("Generate docs fail", "err", err)
		os.Exit(1)
	}
	slog.Info("Docs generated")
}

func build(w io.Writer, rows [][]string) error {
	return md.NewMarkdown(w).
		H1("Перечень кодов ошибок").
		PlainText("Ошибки API редактора возвращаются в теле ответа с полями code, error и ru_error.").
		CustomTable(md.TableSet{
			Header: []string{"Код", "HTTP код", "Сообщение", "Сообщение на русском"},
			Rows:   rows,
		}, md.TableOptions{
			AutoWrapText: false,
		}).Build()
}

// getRows собирает строки таблицы из объявлений вида Name = DefinedError{...}.
func getRows(f *ast.File) [][]string {
	var rows [][]string
	for _, d := range f.Decls {
		decl, ok := d.(*ast.GenDecl)
		if !ok || decl.Tok != token.VAR {
			continue
		}
		for _, spec := range decl.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for _, v := range vs.Values {
				lit, ok := v.(*ast.CompositeLit)
				if !ok || fmt.Sprint(lit.Type) != "DefinedError" {
					continue
				}
				rows = append(rows, row(lit))
			}
		}
	}
	return rows
}

func row(lit *ast.CompositeLit) []string {
	r := make([]string, 4)
	status := "StatusBadRequest"
	for _, el := range lit.Elts {
		kv, ok := el.(*ast.KeyValueExpr)
		if !ok {
			continue
		}
		switch fmt.Sprint(kv.Key) {
		case "Code":
			r[0] = md.Bold(literal(kv.Value))
		case "StatusCode":
			if sel, ok := kv.Value.(*ast.SelectorExpr); ok {
				status = sel.Sel.Name
			}
		case "Err":
			r[2] = md.Code(literal(kv.Value))
		case "RuErr":
			r[3] = md.Code(literal(kv.Value))
		}
	}
	r[1] = fmt.Sprintf("%s %s", statusCodes[status], md.Italic(status))
	return r
}

// literal возвращает значение строкового или числового литерала. Конкатенация строк склеивается.
func literal(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.BasicLit:
		if e.Kind == token.STRING {
			if s, err := strconv.Unquote(e.Value); err == nil {
				return s
			}
		}
		return e.Value
	case *ast.BinaryExpr:
		return literal(e.X) + literal(e.Y)
	}
	return ""
}

var statusCodes = map[string]string{
	"StatusBadRequest":            "400",
	"StatusUnauthorized":          "401",
	"StatusForbidden":             "403",
	"StatusNotFound":              "404",
	"StatusConflict":              "409",
	"StatusRequestEntityTooLarge": "413",
	"StatusUnprocessableEntity":   "422",
	"StatusTooManyRequests":       "429",
	"StatusInternalServerError":   "500",
	"StatusServiceUnavailable":    "503",
}
