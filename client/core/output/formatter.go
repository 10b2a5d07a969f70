// Package output 命令行输出格式化
//
// 数据写到 stdout，提示信息写到 stderr，保证 json 输出可以直接被管道消费。
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pterm/pterm"
)

// Format 输出格式
type Format string

const (
	// FormatJSON 单行 JSON（默认）
	FormatJSON Format = "json"
	// FormatPretty 缩进 JSON
	FormatPretty Format = "pretty"
	// FormatTable 表格
	FormatTable Format = "table"
	// FormatText 纯文本
	FormatText Format = "text"
)

// ParseFormat 解析 --output 参数
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatPretty, FormatTable, FormatText:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (json|pretty|table|text)", s)
	}
}

// Formatter 输出格式化器
type Formatter struct {
	format    Format
	writer    io.Writer // 数据
	logWriter io.Writer // 提示信息
	silent    bool
}

// NewFormatter 创建格式化器，writer 为 nil 时写到 stdout
func NewFormatter(format Format, writer io.Writer) *Formatter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Formatter{
		format:    format,
		writer:    writer,
		logWriter: os.Stderr,
	}
}

// Format 当前格式
func (f *Formatter) Format() Format { return f.format }

// SetLogWriter 设置提示信息输出目标（默认 stderr）
func (f *Formatter) SetLogWriter(writer io.Writer) {
	if writer == nil {
		writer = os.Stderr
	}
	f.logWriter = writer
}

// SetSilent 静默模式下 Print 和提示信息都不输出，错误除外
func (f *Formatter) SetSilent(silent bool) {
	f.silent = silent
}

// Print 按格式输出数据
func (f *Formatter) Print(data interface{}) error {
	if f.silent {
		return nil
	}

	switch f.format {
	case FormatPretty:
		return f.printJSON(data, true)
	case FormatTable:
		return f.printTable(data)
	case FormatText:
		return f.printText(data)
	default:
		return f.printJSON(data, false)
	}
}

func (f *Formatter) printJSON(data interface{}, pretty bool) error {
	var (
		out []byte
		err error
	)
	if pretty {
		out, err = json.MarshalIndent(data, "", "  ")
	} else {
		out, err = json.Marshal(data)
	}
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if _, err := fmt.Fprintln(f.writer, string(out)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// printTable 结构体先经 JSON 归一化为 map，再按形状渲染
func (f *Formatter) printTable(data interface{}) error {
	normalized, err := normalize(data)
	if err != nil {
		return err
	}

	var rows pterm.TableData
	switch v := normalized.(type) {
	case map[string]interface{}:
		rows = mapTable(v)
	case []interface{}:
		rows = sliceTable(v)
	default:
		return f.printText(data)
	}
	if len(rows) <= 1 {
		return nil
	}

	rendered, err := pterm.DefaultTable.
		WithHasHeader().
		WithHeaderRowSeparator("-").
		WithData(rows).
		Srender()
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	if _, err := fmt.Fprintln(f.writer, rendered); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func normalize(data interface{}) (interface{}, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("unmarshal json: %w", err)
	}
	return v, nil
}

// mapTable 两列: Key | Value，按键排序
func mapTable(data map[string]interface{}) pterm.TableData {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := pterm.TableData{{"Key", "Value"}}
	for _, k := range keys {
		rows = append(rows, []string{k, formatValue(data[k])})
	}
	return rows
}

// sliceTable 元素都是对象时按列展开，否则输出 # | Value
func sliceTable(data []interface{}) pterm.TableData {
	objects := make([]map[string]interface{}, 0, len(data))
	for _, item := range data {
		m, ok := item.(map[string]interface{})
		if !ok {
			objects = nil
			break
		}
		objects = append(objects, m)
	}

	if len(objects) == 0 {
		rows := pterm.TableData{{"#", "Value"}}
		for i, item := range data {
			rows = append(rows, []string{fmt.Sprintf("%d", i), formatValue(item)})
		}
		return rows
	}

	columns := extractColumns(objects)
	rows := pterm.TableData{columns}
	for _, obj := range objects {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = formatValue(obj[col])
		}
		rows = append(rows, row)
	}
	return rows
}

func (f *Formatter) printText(data interface{}) error {
	var err error
	switch v := data.(type) {
	case fmt.Stringer:
		_, err = fmt.Fprintln(f.writer, v.String())
	case string:
		_, err = fmt.Fprintln(f.writer, v)
	default:
		normalized, nerr := normalize(data)
		if nerr != nil {
			return nerr
		}
		if m, ok := normalized.(map[string]interface{}); ok {
			for _, row := range mapTable(m)[1:] {
				if _, err = fmt.Fprintf(f.writer, "%s: %s\n", row[0], row[1]); err != nil {
					break
				}
			}
		} else {
			_, err = fmt.Fprintln(f.writer, formatValue(normalized))
		}
	}
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// PrintSuccess 成功提示
func (f *Formatter) PrintSuccess(message string) {
	if !f.silent {
		_, _ = fmt.Fprint(f.logWriter, pterm.Success.Sprintln(message))
	}
}

// PrintError 错误提示，静默模式下也输出
func (f *Formatter) PrintError(err error) {
	_, _ = fmt.Fprint(f.logWriter, pterm.Error.Sprintln(err.Error()))
}

// PrintWarning 警告提示
func (f *Formatter) PrintWarning(message string) {
	if !f.silent {
		_, _ = fmt.Fprint(f.logWriter, pterm.Warning.Sprintln(message))
	}
}

// PrintInfo 普通提示
func (f *Formatter) PrintInfo(message string) {
	if !f.silent {
		_, _ = fmt.Fprint(f.logWriter, pterm.Info.Sprintln(message))
	}
}

// formatValue 单元格文本；JSON 数字统一为 float64，整数值去掉小数部分
func formatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "-"
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	}
}

// extractColumns 按首次出现顺序收集列名
func extractColumns(data []map[string]interface{}) []string {
	seen := make(map[string]bool)
	var columns []string
	for _, row := range data {
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	return columns
}

// ErrorOutput 错误输出结构
type ErrorOutput struct {
	Error struct {
		Code    string      `json:"code"`
		Message string      `json:"message"`
		Field   string      `json:"field,omitempty"`
		Details interface{} `json:"details,omitempty"`
	} `json:"error"`
}

// NewErrorOutput 创建错误输出
func NewErrorOutput(code, message, field string, details interface{}) *ErrorOutput {
	out := &ErrorOutput{}
	out.Error.Code = code
	out.Error.Message = message
	out.Error.Field = field
	out.Error.Details = details
	return out
}

// SuccessOutput 成功输出结构
type SuccessOutput struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// NewSuccessOutput 创建成功输出
func NewSuccessOutput(data interface{}, message string) *SuccessOutput {
	return &SuccessOutput{
		Success: true,
		Data:    data,
		Message: message,
	}
}
