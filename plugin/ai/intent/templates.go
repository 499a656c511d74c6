package intent

// templates holds the example phrases each intent is matched against in
// the semantic stage. Both Chinese and English phrasing is covered since
// the user base mixes the two.
var templates = map[Intent][]string{
	IntentGreeting: {
		"你好",
		"早上好",
		"晚上好",
		"hello",
		"hi there",
		"good morning",
	},
	IntentConfirmation: {
		"好的",
		"是的",
		"谢谢",
		"没问题",
		"okay thanks",
		"yes that works",
		"sounds good",
	},
	IntentDataQuery: {
		"我昨晚睡了多久",
		"查一下我这周的睡眠数据",
		"我今天走了多少步",
		"我的平均心率是多少",
		"how long did I sleep last night",
		"show me my sleep data for this week",
		"what was my heart rate yesterday",
		"how many steps did I take today",
	},
	IntentAdviceRequest: {
		"我应该怎么改善睡眠",
		"给我一些提高精力的建议",
		"什么时候锻炼效果最好",
		"我该吃什么早餐比较健康",
		"how can I improve my sleep quality",
		"what should I do to have more energy",
		"when is the best time to exercise",
		"any tips for better focus in the afternoon",
	},
	IntentEmotionalSupport: {
		"我最近压力好大",
		"我感觉很焦虑",
		"我睡不着心里很烦",
		"今天心情很低落",
		"I feel so stressed lately",
		"I am feeling anxious and overwhelmed",
		"I can't sleep and it's making me miserable",
		"I feel burned out",
	},
	IntentComplexAnalysis: {
		"分析一下我过去一个月的睡眠和精力的关系",
		"比较我锻炼日和不锻炼日的恢复情况",
		"为什么我的深睡比例一直在下降",
		"analyze the relationship between my sleep and energy over the past month",
		"compare my recovery on workout days versus rest days",
		"why has my deep sleep percentage been declining",
		"find patterns in my afternoon energy crashes",
	},
	IntentHealthDiagnosis: {
		"我最近总是头晕是怎么回事",
		"我心跳有时候很快正常吗",
		"我总是半夜醒来是不是有什么问题",
		"这些症状说明我生病了吗",
		"I keep waking up with headaches, what could be wrong",
		"is it normal that my heart races at night",
		"do these symptoms mean something is wrong with me",
		"I've been dizzy every morning this week",
	},
}
