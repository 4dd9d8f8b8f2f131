package main

import (
	"encoding/json"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// JSON key fragments marking each side of the wallet/pseudonym binding.
// Any handler-authored struct or gin.H literal that serializes keys from
// both lists in one shape would let a caller correlate the two.
var walletKeyFragments = []string{"wallet"}

var pseudonymKeyFragments = []string{"pseudonym"}

// sensitiveModelFields must carry a json:"-" tag so a raw entity dumped
// into a response can never include them.
var sensitiveModelFields = map[string][]string{
	"ProofArtifact": {"Payload", "VerificationKey"},
}

type bindingLeak struct {
	File          string   `json:"file"`
	Line          int      `json:"line"`
	Site          string   `json:"site"`
	WalletKeys    []string `json:"wallet_keys"`
	PseudonymKeys []string `json:"pseudonym_keys"`
}

type exposedField struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Struct string `json:"struct"`
	Field  string `json:"field"`
	Tag    string `json:"tag"`
}

type auditReport struct {
	OK                      bool           `json:"ok"`
	HandlerStructsScanned   int            `json:"handler_structs_scanned"`
	ResponseLiteralsScanned int            `json:"response_literals_scanned"`
	BindingLeaks            []bindingLeak  `json:"binding_leaks"`
	ExposedSensitiveFields  []exposedField `json:"exposed_sensitive_fields"`
}

func main() {
	root := "."
	if len(os.Args) > 1 {
		root = os.Args[1]
	}

	fset := token.NewFileSet()
	var report auditReport
	auditHandlers(root, fset, &report)
	auditModels(root, fset, &report)

	sort.Slice(report.BindingLeaks, func(i, j int) bool {
		if report.BindingLeaks[i].File == report.BindingLeaks[j].File {
			return report.BindingLeaks[i].Line < report.BindingLeaks[j].Line
		}
		return report.BindingLeaks[i].File < report.BindingLeaks[j].File
	})
	report.OK = len(report.BindingLeaks) == 0 && len(report.ExposedSensitiveFields) == 0

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		exitf("marshal report: %v", err)
	}
	fmt.Println(string(out))
	if !report.OK {
		os.Exit(1)
	}
}

func auditHandlers(root string, fset *token.FileSet, report *auditReport) {
	pkg := parsePackage(filepath.Join(root, "internal", "handlers"), "handlers", fset)

	for filePath, f := range pkg.Files {
		rel := relPath(root, filePath)
		for _, decl := range f.Decls {
			switch d := decl.(type) {
			case *ast.GenDecl:
				if d.Tok != token.TYPE {
					continue
				}
				for _, spec := range d.Specs {
					ts, ok := spec.(*ast.TypeSpec)
					if !ok {
						continue
					}
					st, ok := ts.Type.(*ast.StructType)
					if !ok || st.Fields == nil {
						continue
					}
					report.HandlerStructsScanned++
					checkKeys(structJSONKeys(st), rel, fset.Position(ts.Pos()).Line, "struct "+ts.Name.Name, report)
				}
			case *ast.FuncDecl:
				if d.Body == nil {
					continue
				}
				funcName := d.Name.Name
				ast.Inspect(d.Body, func(n ast.Node) bool {
					lit, ok := n.(*ast.CompositeLit)
					if !ok || !isGinH(lit.Type) {
						return true
					}
					report.ResponseLiteralsScanned++
					checkKeys(literalKeys(lit), rel, fset.Position(lit.Pos()).Line, "gin.H in "+funcName, report)
					return true
				})
			}
		}
	}

	// Anonymous structs inside handler bodies serialize too.
	for filePath, f := range pkg.Files {
		rel := relPath(root, filePath)
		for _, decl := range f.Decls {
			fd, ok := decl.(*ast.FuncDecl)
			if !ok || fd.Body == nil {
				continue
			}
			funcName := fd.Name.Name
			ast.Inspect(fd.Body, func(n ast.Node) bool {
				st, ok := n.(*ast.StructType)
				if !ok || st.Fields == nil {
					return true
				}
				report.HandlerStructsScanned++
				checkKeys(structJSONKeys(st), rel, fset.Position(st.Pos()).Line, "anonymous struct in "+funcName, report)
				return true
			})
		}
	}
}

func auditModels(root string, fset *token.FileSet, report *auditReport) {
	pkg := parsePackage(filepath.Join(root, "internal", "types"), "types", fset)

	found := map[string]map[string]bool{}
	for filePath, f := range pkg.Files {
		rel := relPath(root, filePath)
		for _, decl := range f.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.TYPE {
				continue
			}
			for _, spec := range gd.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				wanted, ok := sensitiveModelFields[ts.Name.Name]
				if !ok {
					continue
				}
				st, ok := ts.Type.(*ast.StructType)
				if !ok || st.Fields == nil {
					continue
				}
				seen := map[string]bool{}
				for _, field := range st.Fields.List {
					if len(field.Names) == 0 {
						continue
					}
					name := field.Names[0].Name
					if !contains(wanted, name) {
						continue
					}
					seen[name] = true
					if tag := rawJSONTag(field); tag != "-" {
						report.ExposedSensitiveFields = append(report.ExposedSensitiveFields, exposedField{
							File:   rel,
							Line:   fset.Position(field.Pos()).Line,
							Struct: ts.Name.Name,
							Field:  name,
							Tag:    tag,
						})
					}
				}
				found[ts.Name.Name] = seen
			}
		}
	}

	// A renamed model or field silently exempts itself from the audit,
	// so a stale table is a hard failure rather than a clean pass.
	for structName, fields := range sensitiveModelFields {
		seen, ok := found[structName]
		if !ok {
			exitf("types.%s not found; update sensitiveModelFields", structName)
		}
		for _, field := range fields {
			if !seen[field] {
				exitf("types.%s.%s not found; update sensitiveModelFields", structName, field)
			}
		}
	}
}

func checkKeys(keys []string, file string, line int, site string, report *auditReport) {
	var walletKeys, pseudonymKeys []string
	for _, key := range keys {
		lower := strings.ToLower(key)
		if containsAny(lower, walletKeyFragments) {
			walletKeys = append(walletKeys, key)
		}
		if containsAny(lower, pseudonymKeyFragments) {
			pseudonymKeys = append(pseudonymKeys, key)
		}
	}
	if len(walletKeys) > 0 && len(pseudonymKeys) > 0 {
		report.BindingLeaks = append(report.BindingLeaks, bindingLeak{
			File:          file,
			Line:          line,
			Site:          site,
			WalletKeys:    walletKeys,
			PseudonymKeys: pseudonymKeys,
		})
	}
}

func structJSONKeys(st *ast.StructType) []string {
	var keys []string
	for _, field := range st.Fields.List {
		if key, ok := jsonKey(field); ok {
			keys = append(keys, key)
		}
	}
	return keys
}

func literalKeys(lit *ast.CompositeLit) []string {
	var keys []string
	for _, elt := range lit.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			continue
		}
		bl, ok := kv.Key.(*ast.BasicLit)
		if !ok || bl.Kind != token.STRING {
			continue
		}
		key, err := strconv.Unquote(bl.Value)
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

// jsonKey resolves the wire name a struct field serializes under, or
// reports false for unexported and json:"-" fields.
func jsonKey(field *ast.Field) (string, bool) {
	if len(field.Names) == 0 || !field.Names[0].IsExported() {
		return "", false
	}
	name := field.Names[0].Name
	tag := rawJSONTag(field)
	if tag == "" {
		return name, true
	}
	tagName := strings.Split(tag, ",")[0]
	if tagName == "-" {
		return "", false
	}
	if tagName == "" {
		return name, true
	}
	return tagName, true
}

func rawJSONTag(field *ast.Field) string {
	if field.Tag == nil {
		return ""
	}
	raw, err := strconv.Unquote(field.Tag.Value)
	if err != nil {
		return ""
	}
	return reflect.StructTag(raw).Get("json")
}

func isGinH(expr ast.Expr) bool {
	sel, ok := expr.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	pkgIdent, ok := sel.X.(*ast.Ident)
	return ok && pkgIdent.Name == "gin" && sel.Sel.Name == "H"
}

func parsePackage(dir, name string, fset *token.FileSet) *ast.Package {
	pkgs, err := parser.ParseDir(fset, dir, func(fi os.FileInfo) bool {
		n := fi.Name()
		return strings.HasSuffix(n, ".go") && !strings.HasSuffix(n, "_test.go")
	}, 0)
	if err != nil {
		exitf("parse %s: %v", dir, err)
	}
	pkg, ok := pkgs[name]
	if !ok {
		exitf("%s package not found in %s", name, dir)
	}
	return pkg
}

func relPath(root, filePath string) string {
	rel, err := filepath.Rel(root, filePath)
	if err != nil {
		return filepath.ToSlash(filePath)
	}
	return filepath.ToSlash(rel)
}

func containsAny(s string, fragments []string) bool {
	for _, fragment := range fragments {
		if strings.Contains(s, fragment) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
