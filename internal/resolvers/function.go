package resolvers

import (
	"github.com/roach88/qbridge/internal/queryir"
	"github.com/roach88/qbridge/internal/resolve"
	"github.com/roach88/qbridge/internal/sqlexpr"
)

// Functions applied directly to their argument: NAME(arg).
var callFunctions = map[queryir.FunctionKind]string{
	queryir.FuncCount: "COUNT",
	queryir.FuncSum:   "SUM",
	queryir.FuncAvg:   "AVG",
	queryir.FuncMin:   "MIN",
	queryir.FuncMax:   "MAX",
	queryir.FuncUpper: "UPPER",
	queryir.FuncLower: "LOWER",
}

// Date parts, extracted with strftime and cast back to integers.
var datePartFormats = map[queryir.FunctionKind]string{
	queryir.FuncYear:  "%Y",
	queryir.FuncMonth: "%m",
	queryir.FuncDay:   "%d",
	queryir.FuncHour:  "%H",
}

func resolveFunction(f *queryir.Function, ctx *resolve.Context) (sqlexpr.Expr, bool, error) {
	switch f.Kind {
	case queryir.FuncCurrentDate:
		return sqlexpr.Raw("CURRENT_DATE", f.Type()), true, nil
	case queryir.FuncCurrentTimestamp:
		return sqlexpr.Raw("CURRENT_TIMESTAMP", f.Type()), true, nil
	case queryir.FuncCount:
		if len(f.Args) == 0 {
			return sqlexpr.Raw("COUNT(*)", f.Type()), true, nil
		}
	}

	name, isCall := callFunctions[f.Kind]
	format, isDatePart := datePartFormats[f.Kind]
	if !isCall && !isDatePart {
		return sqlexpr.Expr{}, false, nil
	}

	if len(f.Args) == 0 || queryir.Absent(f.Args[0]) {
		return sqlexpr.Expr{}, false, resolve.NewMissingArgumentError(string(f.Kind), f.String())
	}
	arg, err := resolve.Must[sqlexpr.Expr](ctx, f.Args[0])
	if err != nil {
		return sqlexpr.Expr{}, false, err
	}

	if isCall {
		return sqlexpr.Call(name, arg, f.Type()), true, nil
	}
	return sqlexpr.Wrap("CAST(strftime('"+format+"', ", arg, ") AS INTEGER)", f.Type()), true, nil
}
