package dialog

// screeningQuestions is the fixed, ordered list asked for each issue type
// before booking. Answers feed the technician briefing, not the schedule.
var screeningQuestions = map[IssueType][]string{
	IssueToilet: {
		"Is the toilet blocked, leaking, or not flushing properly?",
		"Is water overflowing onto the floor at the moment?",
	},
	IssueTap: {
		"Which tap is giving you trouble, and is it dripping or not running at all?",
		"Can you still turn the water off at that tap?",
	},
	IssueHotWater: {
		"Do you have no hot water at all, or is it running out quickly?",
		"Is your hot water system gas or electric, if you know?",
		"Roughly how old is the system?",
	},
	IssueBurstLeak: {
		"Have you been able to turn off the water at the mains?",
		"Is the water near any power points or electrical appliances?",
	},
	IssueDrain: {
		"Which drain is blocked, and is anything coming back up?",
		"Is it just slow to empty, or completely blocked?",
	},
	IssueOther: {
		"Can you tell me a bit more about what's happening?",
	},
}

// QuestionsFor returns the ordered screening questions for an issue type.
func QuestionsFor(issue IssueType) []string {
	if qs, ok := screeningQuestions[issue]; ok {
		return qs
	}
	return screeningQuestions[IssueOther]
}
