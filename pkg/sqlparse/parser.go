package sqlparse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/blockql/blockql/pkg/dbtype"
	"github.com/blockql/blockql/pkg/filter"
	"github.com/blockql/blockql/pkg/sqltoken"
)

// Parse lexes and parses a single SQL statement (without its trailing
// semicolon, which the caller's statement splitter already stripped).
func Parse(src string) (*Statement, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, fmt.Errorf("sqlparse: empty statement")
	}
	tz, err := sqltoken.Tokenize(src)
	if err != nil {
		return nil, err
	}
	if tz.Remaining() == 0 {
		return nil, fmt.Errorf("sqlparse: empty statement")
	}

	first := tz.Current()
	if first.Type != sqltoken.Keyword {
		return nil, fmt.Errorf("sqlparse: statement must start with a keyword, got %s", first)
	}

	var stmt *Statement
	switch first.Text {
	case "CREATE":
		stmt, err = parseCreate(tz)
	case "DROP":
		stmt, err = parseDrop(tz)
	case "USE":
		tz.Advance()
		var name string
		name, err = expectIdentifier(tz)
		if err == nil {
			stmt = &Statement{Kind: UseDatabase, Name: name}
		}
	case "SHOW":
		stmt, err = parseShow(tz)
	case "DUMP":
		tz.Advance()
		if err = tz.Expect("DATABASE"); err == nil {
			stmt = &Statement{Kind: DumpDatabase}
		}
	case "DESCRIBE":
		tz.Advance()
		var name string
		name, err = expectIdentifier(tz)
		if err == nil {
			stmt = &Statement{Kind: Describe, Table: name}
		}
	case "INSERT":
		stmt, err = parseInsert(tz)
	case "SELECT":
		stmt, err = parseSelect(tz)
	case "UPDATE":
		stmt, err = parseUpdate(tz)
	case "DELETE":
		stmt, err = parseDelete(tz)
	default:
		return nil, fmt.Errorf("sqlparse: unsupported statement keyword %s", first.Text)
	}
	if err != nil {
		return nil, err
	}
	if tz.Remaining() != 0 {
		return nil, fmt.Errorf("sqlparse: unexpected trailing token %s", tz.Current())
	}
	return stmt, nil
}

func expectIdentifier(tz *sqltoken.Tokenizer) (string, error) {
	cur := tz.Current()
	if cur.Type != sqltoken.Identifier {
		return "", fmt.Errorf("sqlparse: expected identifier, got %s", cur)
	}
	tz.Advance()
	return cur.Text, nil
}

func parseCreate(tz *sqltoken.Tokenizer) (*Statement, error) {
	tz.Advance() // CREATE
	switch tz.Current().Text {
	case "DATABASE":
		tz.Advance()
		name, err := expectIdentifier(tz)
		if err != nil {
			return nil, err
		}
		return &Statement{Kind: CreateDatabase, Name: name}, nil
	case "TABLE":
		tz.Advance()
		return parseCreateTable(tz)
	default:
		return nil, fmt.Errorf("sqlparse: expected DATABASE or TABLE after CREATE, got %s", tz.Current())
	}
}

func parseCreateTable(tz *sqltoken.Tokenizer) (*Statement, error) {
	name, err := expectIdentifier(tz)
	if err != nil {
		return nil, err
	}
	if err := tz.Expect("("); err != nil {
		return nil, err
	}
	var cols []ColumnDef
	for {
		colName, err := expectIdentifier(tz)
		if err != nil {
			return nil, err
		}
		typTok := tz.Current()
		if typTok.Type != sqltoken.Keyword {
			return nil, fmt.Errorf("sqlparse: expected a type for column %s, got %s", colName, typTok)
		}
		kind, err := kindFromKeyword(typTok.Text)
		if err != nil {
			return nil, err
		}
		tz.Advance()

		col := ColumnDef{Name: colName, Type: kind, Nullable: true}
		if kind == dbtype.KindText && tz.SkipIf("(") {
			size, err := expectNumber(tz)
			if err != nil {
				return nil, err
			}
			col.Size = size
			if err := tz.Expect(")"); err != nil {
				return nil, err
			}
		}
		for {
			switch tz.Current().Text {
			case "PRIMARY":
				tz.Advance()
				if err := tz.Expect("KEY"); err != nil {
					return nil, err
				}
				col.PrimaryKey = true
				col.Nullable = false
			case "AUTO_INCREMENT":
				tz.Advance()
				col.AutoIncrement = true
			case "NOT":
				tz.Advance()
				if err := tz.Expect("NULL"); err != nil {
					return nil, err
				}
				col.Nullable = false
			case "DEFAULT":
				tz.Advance()
				v, err := parseLiteral(tz)
				if err != nil {
					return nil, err
				}
				col.HasDefault = true
				col.Default = v
			default:
				goto doneModifiers
			}
		}
	doneModifiers:
		cols = append(cols, col)
		if tz.SkipIf(",") {
			continue
		}
		break
	}
	if err := tz.Expect(")"); err != nil {
		return nil, err
	}
	return &Statement{Kind: CreateTable, Table: name, Columns: cols}, nil
}

func kindFromKeyword(kw string) (dbtype.Kind, error) {
	switch kw {
	case "INT", "INTEGER":
		return dbtype.KindInt, nil
	case "FLOAT", "DOUBLE", "DECIMAL":
		return dbtype.KindFloat, nil
	case "VARCHAR":
		return dbtype.KindText, nil
	case "BOOL", "BOOLEAN":
		return dbtype.KindBool, nil
	case "DATETIME":
		return dbtype.KindDatetime, nil
	default:
		return 0, fmt.Errorf("sqlparse: unknown column type %s", kw)
	}
}

func parseDrop(tz *sqltoken.Tokenizer) (*Statement, error) {
	tz.Advance() // DROP
	switch tz.Current().Text {
	case "DATABASE":
		tz.Advance()
		name, err := expectIdentifier(tz)
		if err != nil {
			return nil, err
		}
		return &Statement{Kind: DropDatabase, Name: name}, nil
	case "TABLE":
		tz.Advance()
		name, err := expectIdentifier(tz)
		if err != nil {
			return nil, err
		}
		return &Statement{Kind: DropTable, Table: name}, nil
	default:
		return nil, fmt.Errorf("sqlparse: expected DATABASE or TABLE after DROP, got %s", tz.Current())
	}
}

func parseShow(tz *sqltoken.Tokenizer) (*Statement, error) {
	tz.Advance() // SHOW
	switch tz.Current().Text {
	case "DATABASES":
		tz.Advance()
		return &Statement{Kind: ShowDatabases}, nil
	case "TABLES":
		tz.Advance()
		return &Statement{Kind: ShowTables}, nil
	case "INDEXES":
		tz.Advance()
		stmt := &Statement{Kind: ShowIndexes}
		if tz.SkipIf("FROM") {
			name, err := expectIdentifier(tz)
			if err != nil {
				return nil, err
			}
			stmt.Table = name
		}
		return stmt, nil
	case "INDEX":
		// SHOW INDEX col[, col...] FROM table — a column-scoped query,
		// distinct from the bare table-level SHOW INDEXES above.
		tz.Advance()
		cols, err := parseIdentifierList(tz)
		if err != nil {
			return nil, err
		}
		if err := tz.Expect("FROM"); err != nil {
			return nil, err
		}
		table, err := expectIdentifier(tz)
		if err != nil {
			return nil, err
		}
		return &Statement{Kind: ShowIndexes, Table: table, IndexColumns: cols}, nil
	default:
		return nil, fmt.Errorf("sqlparse: expected DATABASES, TABLES or INDEXES after SHOW, got %s", tz.Current())
	}
}

func parseInsert(tz *sqltoken.Tokenizer) (*Statement, error) {
	tz.Advance() // INSERT
	if err := tz.Expect("INTO"); err != nil {
		return nil, err
	}
	table, err := expectIdentifier(tz)
	if err != nil {
		return nil, err
	}
	stmt := &Statement{Kind: Insert, Table: table}

	if tz.SkipIf("(") {
		for {
			col, err := expectIdentifier(tz)
			if err != nil {
				return nil, err
			}
			stmt.InsertColumns = append(stmt.InsertColumns, col)
			if tz.SkipIf(",") {
				continue
			}
			break
		}
		if err := tz.Expect(")"); err != nil {
			return nil, err
		}
	}

	if err := tz.Expect("VALUES"); err != nil {
		return nil, err
	}
	if err := tz.Expect("("); err != nil {
		return nil, err
	}
	for {
		v, err := parseLiteral(tz)
		if err != nil {
			return nil, err
		}
		stmt.InsertValues = append(stmt.InsertValues, v)
		if tz.SkipIf(",") {
			continue
		}
		break
	}
	if err := tz.Expect(")"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func parseLiteral(tz *sqltoken.Tokenizer) (dbtype.Value, error) {
	cur := tz.Current()
	switch cur.Type {
	case sqltoken.Number:
		tz.Advance()
		if strings.Contains(cur.Text, ".") {
			f, err := strconv.ParseFloat(cur.Text, 64)
			if err != nil {
				return dbtype.Value{}, fmt.Errorf("sqlparse: bad float literal %q: %w", cur.Text, err)
			}
			return dbtype.Float(f), nil
		}
		i, err := strconv.ParseInt(cur.Text, 10, 64)
		if err != nil {
			return dbtype.Value{}, fmt.Errorf("sqlparse: bad int literal %q: %w", cur.Text, err)
		}
		return dbtype.Int(i), nil
	case sqltoken.String:
		tz.Advance()
		return dbtype.Text(cur.Text), nil
	case sqltoken.Keyword:
		switch cur.Text {
		case "TRUE":
			tz.Advance()
			return dbtype.Bool(true), nil
		case "FALSE":
			tz.Advance()
			return dbtype.Bool(false), nil
		case "NULL":
			tz.Advance()
			return dbtype.None(), nil
		}
	}
	return dbtype.Value{}, fmt.Errorf("sqlparse: expected a literal value, got %s", cur)
}

func parseOperand(tz *sqltoken.Tokenizer) (filter.Operand, error) {
	cur := tz.Current()
	if cur.Type == sqltoken.Identifier {
		tz.Advance()
		return filter.Col(cur.Text), nil
	}
	v, err := parseLiteral(tz)
	if err != nil {
		return filter.Operand{}, err
	}
	return filter.Lit(v), nil
}

func operatorFromText(text string) (filter.Operator, error) {
	switch text {
	case "=":
		return filter.Equal, nil
	case "!=":
		return filter.NotEqual, nil
	case "<":
		return filter.LessThan, nil
	case "<=":
		return filter.LessOrEqual, nil
	case ">":
		return filter.GreaterThan, nil
	case ">=":
		return filter.GreaterOrEqual, nil
	default:
		return 0, fmt.Errorf("sqlparse: unknown comparison operator %q", text)
	}
}

// parseWhere parses the WHERE clause's expression chain, grounded on the
// original engine's Filters::parse loop: leading NOT/AND/OR keywords
// accumulate against the next expression, operands may be identifiers or
// literals, and parsing stops at end of input or a clause-terminating
// keyword (ORDER, LIMIT) or the end of the statement.
func parseWhere(tz *sqltoken.Tokenizer) (filter.Filters, error) {
	var f filter.Filters
	for {
		notCount := 0
		var pendingLogic filter.LogicOp = filter.NoLogic
		for {
			switch tz.Current().Text {
			case "NOT":
				tz.Advance()
				notCount++
				continue
			case "AND":
				tz.Advance()
				pendingLogic = filter.And
				continue
			case "OR":
				tz.Advance()
				pendingLogic = filter.Or
				continue
			}
			break
		}
		if len(f.Expressions) > 0 {
			if pendingLogic == filter.NoLogic {
				return f, fmt.Errorf("sqlparse: expected AND/OR between WHERE expressions")
			}
			f.LogicOps = append(f.LogicOps, pendingLogic)
		}

		lhs, err := parseOperand(tz)
		if err != nil {
			return f, err
		}
		opTok := tz.Current()
		if opTok.Type != sqltoken.Operator {
			return f, fmt.Errorf("sqlparse: expected comparison operator, got %s", opTok)
		}
		op, err := operatorFromText(opTok.Text)
		if err != nil {
			return f, err
		}
		tz.Advance()
		rhs, err := parseOperand(tz)
		if err != nil {
			return f, err
		}
		f.Expressions = append(f.Expressions, filter.Expression{LHS: lhs, Op: op, RHS: rhs, NotCount: notCount})

		next := tz.Current()
		if next.Type != sqltoken.Keyword || (next.Text != "AND" && next.Text != "OR" && next.Text != "NOT") {
			return f, nil
		}
	}
}

// parseIdentifierList parses one or more comma-separated identifiers,
// grounded on ParseHelper::parseIdentifierList.
func parseIdentifierList(tz *sqltoken.Tokenizer) ([]string, error) {
	var names []string
	for {
		name, err := expectIdentifier(tz)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		if tz.SkipIf(",") {
			continue
		}
		break
	}
	return names, nil
}

func parseFieldList(tz *sqltoken.Tokenizer) ([]string, error) {
	if tz.SkipIf("*") {
		return []string{"*"}, nil
	}
	var fields []string
	for {
		name, err := expectIdentifier(tz)
		if err != nil {
			return nil, err
		}
		fields = append(fields, name)
		if tz.SkipIf(",") {
			continue
		}
		break
	}
	return fields, nil
}

func parseSelect(tz *sqltoken.Tokenizer) (*Statement, error) {
	tz.Advance() // SELECT
	fields, err := parseFieldList(tz)
	if err != nil {
		return nil, err
	}
	if err := tz.Expect("FROM"); err != nil {
		return nil, err
	}
	table, err := expectIdentifier(tz)
	if err != nil {
		return nil, err
	}
	stmt := &Statement{Kind: Select, Table: table, Fields: fields}

	for {
		var jk JoinKind
		switch tz.Current().Text {
		case "LEFT":
			jk = JoinLeft
		case "RIGHT":
			jk = JoinRight
		case "INNER":
			jk = JoinInner
		case "CROSS":
			jk = JoinCross
		case "FULL":
			jk = JoinFull
		case "JOIN":
			jk = JoinInner
			goto haveJoinKind
		default:
			goto noMoreJoins
		}
		tz.Advance()
	haveJoinKind:
		if err := tz.Expect("JOIN"); err != nil {
			return nil, err
		}
		joinTable, err := expectIdentifier(tz)
		if err != nil {
			return nil, err
		}
		if err := tz.Expect("ON"); err != nil {
			return nil, err
		}
		on, err := parseWhere(tz)
		if err != nil {
			return nil, err
		}
		stmt.Joins = append(stmt.Joins, JoinClause{Kind: jk, Table: joinTable, On: on})
	}
noMoreJoins:

	if tz.SkipIf("WHERE") {
		where, err := parseWhere(tz)
		if err != nil {
			return nil, err
		}
		stmt.Where = where
		stmt.HasWhere = true
	}

	if tz.SkipIf("ORDER") {
		if err := tz.Expect("BY"); err != nil {
			return nil, err
		}
		for {
			col, err := expectIdentifier(tz)
			if err != nil {
				return nil, err
			}
			key := OrderKey{Column: col}
			if tz.SkipIf("DESC") {
				key.Desc = true
			} else {
				tz.SkipIf("ASC")
			}
			stmt.OrderBy = append(stmt.OrderBy, key)
			if tz.SkipIf(",") {
				continue
			}
			break
		}
	}

	if tz.SkipIf("LIMIT") {
		n, err := expectNumber(tz)
		if err != nil {
			return nil, err
		}
		stmt.Limit = n
		stmt.HasLimit = true
	}

	return stmt, nil
}

func expectNumber(tz *sqltoken.Tokenizer) (int, error) {
	cur := tz.Current()
	if cur.Type != sqltoken.Number {
		return 0, fmt.Errorf("sqlparse: expected a number, got %s", cur)
	}
	tz.Advance()
	n, err := strconv.Atoi(cur.Text)
	if err != nil {
		return 0, fmt.Errorf("sqlparse: bad integer %q: %w", cur.Text, err)
	}
	return n, nil
}

func parseUpdate(tz *sqltoken.Tokenizer) (*Statement, error) {
	tz.Advance() // UPDATE
	table, err := expectIdentifier(tz)
	if err != nil {
		return nil, err
	}
	if err := tz.Expect("SET"); err != nil {
		return nil, err
	}
	stmt := &Statement{Kind: Update, Table: table}
	for {
		col, err := expectIdentifier(tz)
		if err != nil {
			return nil, err
		}
		if err := tz.Expect("="); err != nil {
			return nil, err
		}
		operand, err := parseOperand(tz)
		if err != nil {
			return nil, err
		}
		stmt.SetClauses = append(stmt.SetClauses, SetClause{Column: col, Value: operand})
		if tz.SkipIf(",") {
			continue
		}
		break
	}
	if tz.SkipIf("WHERE") {
		where, err := parseWhere(tz)
		if err != nil {
			return nil, err
		}
		stmt.Where = where
		stmt.HasWhere = true
	}
	return stmt, nil
}

func parseDelete(tz *sqltoken.Tokenizer) (*Statement, error) {
	tz.Advance() // DELETE
	if err := tz.Expect("FROM"); err != nil {
		return nil, err
	}
	table, err := expectIdentifier(tz)
	if err != nil {
		return nil, err
	}
	stmt := &Statement{Kind: Delete, Table: table}
	if tz.SkipIf("WHERE") {
		where, err := parseWhere(tz)
		if err != nil {
			return nil, err
		}
		stmt.Where = where
		stmt.HasWhere = true
	}
	return stmt, nil
}
