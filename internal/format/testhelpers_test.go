package format

import (
	"github.com/wiz-lang/wiz/internal/ast"
	"github.com/wiz-lang/wiz/internal/numeric"
)

func stringConfig(key, value string) *Config {
	return NewConfig([]ast.ConfigEntry{{Key: key, Value: &ast.StringLit{Value: value}}})
}

func intExpr(v int64) ast.Expression {
	return ast.NewIntegerLit(ast.Builtin, numeric.FromInt64(v), 10)
}
