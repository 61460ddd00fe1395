package completion

import (
	"strings"
	"time"
)

// BuildExtractionPrompt renders the instruction prompt sent to the completion
// provider. now anchors relative and partial dates; circleNames are offered
// for fuzzy matching.
func BuildExtractionPrompt(freeText string, circleNames []string, now time.Time) string {
	today := now.Format("2006-01-02")
	year := now.Format("2006")

	circles := "（暂无）"
	if len(circleNames) > 0 {
		circles = strings.Join(circleNames, "、")
	}

	var b strings.Builder
	b.WriteString("你是一个麻将记账助手。请从用户的文字中提取每一笔输赢记录。\n\n")
	b.WriteString("今天的日期是 " + today + "，今年是 " + year + " 年。\n")
	b.WriteString("用户已有的圈子: " + circles + "\n\n")

	b.WriteString("规则:\n")
	b.WriteString("1. 日期: 输出 YYYY-MM-DD。\"2.6\"、\"2月6日\" 这类没有年份的日期按今年处理；")
	b.WriteString("如果该月日在今天之后，则属于去年。\"今天\"、\"昨天\"、\"前天\" 按今天的日期推算。没有提到日期时使用今天。\n")
	b.WriteString("2. 金额: amount 输出正数。\"赢\"、\"胡\"、\"收\"、\"进账\" 表示 isWin=true；")
	b.WriteString("\"输\"、\"亏\"、\"给出\"、\"付\" 表示 isWin=false。\n")
	b.WriteString("3. 圈子: 如果文字提到了圈子或牌友群，先在已有圈子中模糊匹配（例如 \"同事\" 对应 \"同事圈\"），")
	b.WriteString("匹配到就输出已有名称；没有匹配就输出原文中的名称；完全没有提到时 circleName 为 null。\n")
	b.WriteString("4. 备注: note 只写地点、牌友等补充信息，不要重复金额、日期或圈子名称；没有则为空字符串。\n")
	b.WriteString("5. 忽略月度、年度汇总或合计类的句子（例如 \"这个月一共赢了 3000\"），只提取单次记录。\n")
	b.WriteString("6. 不要编造金额为 0 的记录。只有用户明确说打平、没输没赢时才输出 amount 为 0。\n")
	b.WriteString("7. 如果文字与输赢记账无关，返回空数组 []。\n\n")

	b.WriteString("输出格式: 只输出 JSON 数组，不要代码块，不要任何解释。每个元素:\n")
	b.WriteString("{\"date\": \"YYYY-MM-DD\", \"amount\": 数字, \"isWin\": true 或 false, \"note\": \"字符串\", \"circleName\": \"字符串或 null\"}\n\n")

	b.WriteString("用户输入:\n")
	b.WriteString(freeText)
	b.WriteString("\n")

	return b.String()
}
