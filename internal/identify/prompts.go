package identify

import (
	"fmt"
	"math"
	"strings"

	"github.com/birdeye-app/birdeye/internal/photo"
)

// SystemPrompt is the persona shared by both phases.
const SystemPrompt = "你是一位专精中国鸟类的顶级鸟类学家和鸟类摄影评审专家。" +
	"你熟悉《中国鸟类野外手册》《中国鸟类分类与分布名录》中记录的所有鸟种，" +
	"精通中国境内1400余种鸟类的辨识要点、分布范围和季节性变化。" +
	"你能根据细微的羽色差异区分中国常见的易混淆种（如柳莺类、鹀类、鸫类等）。" +
	"同时你精通鸟类摄影的评判标准，评分非常严格，只有真正出色的照片才能获得高分。"

const contextHeader = "【关键约束 - 必须结合以下信息缩小候选鸟种范围】"

const contextReasoning = "\n你必须严格按照以下逻辑进行识别：\n" +
	"1. 先根据外形特征初步判断可能的鸟种（列出2-3个候选种）\n" +
	"2. 然后逐一检查每个候选种在该地区、该季节是否有分布记录\n" +
	"3. 排除在该地区该季节不可能出现的鸟种\n" +
	"4. 从剩余候选种中选择最匹配的\n" +
	"例如：如果拍摄于冬季的杭州，则排除仅在东北繁殖且不在华东越冬的鸟种；" +
	"如果拍摄于夏季的北京，则排除仅在南方分布的留鸟。\n" +
	"候鸟的季节性分布尤其重要：夏候鸟只在繁殖季出现，冬候鸟只在越冬季出现，" +
	"旅鸟只在迁徙季短暂停留。"

// ContextBlock renders the location and season constraints derived from
// photo metadata. It is empty when there is nothing to constrain with.
func ContextBlock(info photo.ExifInfo) string {
	season := info.Season()
	if info.Location == "" && season == photo.SeasonUnknown && !info.HasGPS() {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n\n" + contextHeader + "\n")
	if info.Location != "" {
		fmt.Fprintf(&sb, "拍摄地点：%s\n", info.Location)
	}
	if info.HasGPS() {
		latHemi, lonHemi := "北纬", "东经"
		if *info.GPSLat < 0 {
			latHemi = "南纬"
		}
		if *info.GPSLon < 0 {
			lonHemi = "西经"
		}
		fmt.Fprintf(&sb, "GPS坐标：%s%.4f°，%s%.4f°\n",
			latHemi, math.Abs(*info.GPSLat), lonHemi, math.Abs(*info.GPSLon))
	}
	if info.ShootTime != "" {
		fmt.Fprintf(&sb, "拍摄时间：%s\n", info.ShootTime)
	}
	if label := season.Label(); label != "" {
		fmt.Fprintf(&sb, "季节：%s\n", label)
	}
	sb.WriteString(contextReasoning)
	return sb.String()
}

const candidatesTask = "这张照片拍摄于中国境内，请在中国有分布记录的鸟种范围内进行初步辨识。\n" +
	"仔细观察体型比例、喙形与喙色、头部纹路（冠羽、眉纹、贯眼纹、眼圈）、上下体羽色、翼斑、腰色、尾形与腿脚颜色，" +
	"并结合栖息环境判断。\n\n" +
	"请列出最多3个最可能的候选鸟种，按可能性从高到低排列，并列出外形相似但应当排除的鸟种及排除理由。\n\n" +
	"只返回一个 JSON 对象，不要返回其他内容，格式如下：\n" +
	"{\n" +
	`  "candidates": [` + "\n" +
	"    {\n" +
	`      "chinese_name": "候选种中文名",` + "\n" +
	`      "english_name": "候选种英文名",` + "\n" +
	`      "key_features": "照片中支持该判断的可见特征",` + "\n" +
	`      "distinguishing_marks": "与相似种的区分要点",` + "\n" +
	`      "distribution": "在拍摄地区和季节的分布情况",` + "\n" +
	`      "confidence_pct": 0` + "\n" +
	"    }\n" +
	"  ],\n" +
	`  "excluded": [` + "\n" +
	`    {"chinese_name": "被排除的相似种", "reason": "排除理由"}` + "\n" +
	"  ]\n" +
	"}"

// CandidatesPrompt is the phase 1 instruction.
func CandidatesPrompt(contextBlock string) string {
	return candidatesTask + contextBlock
}

const judgmentTask = "请完成以下三个任务：\n\n" +
	"## 任务一：鸟种识别（聚焦中国鸟类）\n" +
	"这些照片均拍摄于中国境内，请在中国有分布记录的鸟种范围内进行识别。\n" +
	"仔细观察以下特征来精确识别：\n" +
	"- 体型大小和比例（与麻雀/鸽子/乌鸦等常见鸟对比）\n" +
	"- 喙的形状、长度、粗细和颜色\n" +
	"- 头部特征（冠羽、眉纹、贯眼纹、眼圈颜色）\n" +
	"- 上体和下体羽色、翼斑、腰色、尾羽形状和颜色\n" +
	"- 腿脚颜色\n" +
	"- 注意区分中国常见的易混淆种（如各种柳莺、鹀、鸫、鹟等）\n" +
	"- 结合栖息环境（水域/林地/草地/城市等）辅助判断\n\n" +
	"## 任务二：鸟的位置标注\n" +
	"请估算鸟在图片中的位置，用百分比坐标表示边界框 [x1, y1, x2, y2]：\n" +
	"- x1, y1 是鸟所在区域左上角的坐标（占图片宽高的百分比，0-100）\n" +
	"- x2, y2 是鸟所在区域右下角的坐标（占图片宽高的百分比，0-100）\n" +
	"- 边界框应紧密包围整只鸟（包括尾羽和脚），但不要留太多空白\n" +
	"- 如果图片中有多只鸟，标注最显眼/最大的那只\n\n" +
	"## 任务三：专业摄影评分\n" +
	"以国际鸟类摄影大赛的标准严格评分。\n\n" +
	"**【核心评分方法 - 必须严格遵守】**\n" +
	"每个维度从该维度满分的50%（即中位数）开始，然后根据优缺点加减分：\n" +
	"- 有明显优点：+1到+3分\n" +
	"- 有明显缺点：-1到-5分\n" +
	"- 有严重缺陷：直接降到该维度满分的20%以下\n" +
	"- 只有极其出色才能超过该维度满分的80%\n\n" +
	"**各维度起始分和评判标准：**\n\n" +
	"**1. 主体清晰度（0-20分，起始10分）**\n" +
	"- 鸟眼是否锐利合焦？是+2，否-3\n" +
	"- 羽毛细节是否可见？纤毫毕现+3，模糊-3\n" +
	"- 有无运动模糊？无+1，有-2到-4\n" +
	"- 16分以上要求：鸟眼极锐+羽毛纤维可见+零噪点\n\n" +
	"**2. 构图与美感（0-20分，起始10分）**\n" +
	"- 主体是否居中无变化？是-2（构图平庸）\n" +
	"- 是否运用三分法/黄金分割？是+2\n" +
	"- 留白是否恰当？恰当+1，过多/过少-2\n" +
	"- 主体是否被裁切？是-3到-5\n" +
	"- 16分以上要求：构图有创意+视觉冲击力强\n\n" +
	"**3. 光线与色彩（0-20分，起始10分）**\n" +
	"- 是否黄金时段光线？是+3，正午顶光-2，阴天平光-1\n" +
	"- 曝光是否准确？准确+1，过曝/欠曝-3\n" +
	"- 色彩是否自然饱满？是+1，偏色-2\n" +
	"- 16分以上要求：完美光线+眼神光+色彩层次丰富\n\n" +
	"**4. 背景与环境（0-15分，起始7分）**\n" +
	"- 背景是否干净虚化？奶油虚化+3，轻微杂乱-1，严重杂乱-3\n" +
	"- 有无干扰元素（电线/垃圾/人工物）？有-2到-4\n" +
	"- 12分以上要求：背景完美虚化+色调和谐+衬托主体\n\n" +
	"**5. 姿态与瞬间（0-15分，起始7分）**\n" +
	"- 是否捕捉到行为瞬间（展翅/捕食/求偶）？是+3到+5\n" +
	"- 普通静立？维持7分不加分\n" +
	"- 背对/缩头/遮挡？-2到-4\n" +
	"- 12分以上要求：精彩行为瞬间+眼神交流\n\n" +
	"**6. 艺术性与故事感（0-10分，起始3分）**\n" +
	"- 注意：大多数照片艺术性只有2-4分！\n" +
	"- 纯记录照：2-3分\n" +
	"- 有一定氛围感：4-5分\n" +
	"- 有意境和情感：6-7分\n" +
	"- 8分以上要求：强烈情感共鸣+叙事性+可作为艺术品\n\n" +
	"**总分分布预期（你必须遵守）：**\n" +
	"- 90+：百里挑一的杰作，你每100张照片最多给1张90+\n" +
	"- 75-89：优秀作品，约占10%\n" +
	"- 55-74：普通到良好，大多数照片应在此区间\n" +
	"- 40-54：有明显不足\n" +
	"- 40以下：质量很差\n\n" +
	"**反作弊检查：打分完成后自查，如果总分>80，请重新审视每个分项，" +
	"确认是否每个维度都真的达到了该分数对应的严格标准。如果不确定，宁可降低2-3分。**\n\n" +
	"只返回一个 JSON 对象，不要返回其他内容。\n" +
	"【重要】下面是 JSON 格式模板，其中的数值仅为格式示意，你必须根据实际照片独立评判每个分项，严禁照抄模板中的数值！\n" +
	"{\n" +
	`  "chinese_name": "填写实际识别的中文种名",` + "\n" +
	`  "english_name": "填写实际识别的英文种名",` + "\n" +
	`  "order_chinese": "填写实际的目中文名",` + "\n" +
	`  "order_english": "填写实际的目英文名",` + "\n" +
	`  "family_chinese": "填写实际的科中文名",` + "\n" +
	`  "family_english": "填写实际的科英文名",` + "\n" +
	`  "confidence": "根据实际判断填 high/medium/low",` + "\n" +
	`  "identification_basis": "根据实际观察填写识别依据（20字以内）",` + "\n" +
	`  "bird_description": "根据识别出的鸟种填写详细介绍（100-150字），包括外形特点、生活习性、栖息生境、全球分布、在中国的常见程度",` + "\n" +
	`  "bird_bbox": [x1, y1, x2, y2],` + "\n" +
	`  "score": 0,` + "\n" +
	`  "score_sharpness": 0,` + "\n" +
	`  "score_composition": 0,` + "\n" +
	`  "score_lighting": 0,` + "\n" +
	`  "score_background": 0,` + "\n" +
	`  "score_pose": 0,` + "\n" +
	`  "score_artistry": 0,` + "\n" +
	`  "score_comment": "根据实际照片填写点评（30字以内）"` + "\n" +
	"}\n\n" +
	"要求：\n" +
	"1. 必须精确到具体鸟种，目和科使用正确分类学名称\n" +
	"2. 如果无法识别，chinese_name 填 \"未知鸟类\"\n" +
	"3. score 必须等于6个分项之和\n" +
	"4. 每个分项必须根据照片实际情况独立评判，不同照片的分数应有明显差异\n" +
	"5. 严禁所有分项都给相同或相近的分数，必须体现照片各维度的真实差异\n" +
	"6. bird_description 必须是专业准确的鸟类学知识，内容丰富有趣"

// JudgmentPrompt is the phase 2 instruction: the rubric, the metadata
// context and the phase 1 shortlist.
func JudgmentPrompt(contextBlock string, set CandidateSet) string {
	return judgmentTask + contextBlock + CandidateSummary(set)
}

// CandidateSummary renders the phase 1 shortlist for phase 2. It is empty
// when phase 1 produced nothing.
func CandidateSummary(set CandidateSet) string {
	if set.Empty() {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n\n【第一轮候选分析 - 请在此基础上做出最终判断】\n")
	for i, c := range set.Candidates {
		fmt.Fprintf(&sb, "候选%d：%s（%s），置信度%d%%\n", i+1, c.ChineseName, c.EnglishName, c.ConfidencePct)
		if c.KeyFeatures != "" {
			fmt.Fprintf(&sb, "  支持特征：%s\n", c.KeyFeatures)
		}
		if c.DistinguishingMarks != "" {
			fmt.Fprintf(&sb, "  区分要点：%s\n", c.DistinguishingMarks)
		}
		if c.Distribution != "" {
			fmt.Fprintf(&sb, "  分布情况：%s\n", c.Distribution)
		}
	}
	for _, e := range set.Excluded {
		fmt.Fprintf(&sb, "已排除：%s（%s）\n", e.ChineseName, e.Reason)
	}
	sb.WriteString("请再次仔细核对照片中的关键特征，从候选种中选出最符合的一个；如果所有候选都不符合，可以给出其他鸟种。")
	return sb.String()
}
