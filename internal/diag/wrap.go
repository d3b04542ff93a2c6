package diag

import (
	"fmt"

	"github.com/wiz-lang/wiz/internal/ast"
	"golang.org/x/xerrors"
)

// WrapInternal builds an internal-error diagnostic around an underlying
// cause (e.g. a bank write-conflict or resource-manager I/O failure),
// keeping the cause chain intact via golang.org/x/xerrors so callers
// upstream of the Report can still errors.Is/errors.As through it.
func WrapInternal(loc ast.Location, cause error, format string, args ...any) Diagnostic {
	wrapped := xerrors.Errorf("%s: %w", fmt.Sprintf(format, args...), cause)
	return Diagnostic{Severity: SeverityInternal, Loc: loc, Message: wrapped.Error(), Cause: cause}
}

// WrapError is WrapInternal's non-fatal counterpart, used for recoverable
// conditions that still need to carry a cause (e.g. a malformed -D value
// parsed from an external os.Args string).
func WrapError(loc ast.Location, cause error, format string, args ...any) Diagnostic {
	wrapped := xerrors.Errorf("%s: %w", fmt.Sprintf(format, args...), cause)
	return Diagnostic{Severity: SeverityError, Loc: loc, Message: wrapped.Error(), Cause: cause}
}
