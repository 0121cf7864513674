package rules

// DepartmentHeads is the curated HOD table.
//
// Order is load-bearing: combined programs ("cse ai", "ai & ml") must come
// before the generic "cse" entry that would otherwise shadow them. Do not sort.
var DepartmentHeads = []Entry{
	{
		Keywords: []string{
			"cse (ai & ml)", "cse (ai & ml)", "cse ai ml", "cse ai&ml", "cse ai",
			"ai & ml", "ai ml", "aiml", "ai&ml", "ai and ml",
			"artificial intelligence and machine learning",
			"artificial intelligence machine learning",
		},
		Answer: "Dr. Chandramma R. is the HOD of the Computer Science & Engineering (AI & ML) Department. (GAT)",
	},
	{
		Keywords: []string{
			"cse (ai & ds)", "cse ai ds", "ai & ds", "ai ds",
			"artificial intelligence & data science",
			"artificial intelligence and data science", "ai and ds",
		},
		Answer: "Dr. Girish Rao Salanke N S is Professor & Acting Head of AI & DS (CSE). (GAT)",
	},
	{
		Keywords: []string{"cse", "computer science", "computer science & engineering"},
		Answer:   "Dr. Kumaraswamy S. is the HOD of the Computer Science & Engineering Department. (GAT)",
	},
	{
		Keywords: []string{"ise", "information science", "information science & engineering"},
		Answer:   "Dr. Kiran Y. C. is the HOD of the Information Science & Engineering Department. (GAT)",
	},
	{
		Keywords: []string{
			"ece", "electronics", "electronics & communication",
			"electronics & communication engineering",
		},
		Answer: "Dr. Madhavi Mallam is the HOD of the Electronics & Communication Engineering Department. (GAT)",
	},
	{
		Keywords: []string{
			"eee", "electrical", "electrical & electronics",
			"electrical & electronics engineering",
		},
		Answer: "Dr. Deepika Masand is the HOD of the Electrical & Electronics Engineering Department. (GAT)",
	},
	{
		Keywords: []string{"mechanical", "mechanical engineering"},
		Answer:   "Dr. Bharat Vinjamuri is the HOD of the Mechanical Engineering Department. (GAT)",
	},
	{
		Keywords: []string{"civil", "civil engineering"},
		Answer:   "Dr. Allamaprabhu Kamatagi is the HOD of the Civil Engineering Department. (GAT)",
	},
	{
		Keywords: []string{"aeronautical", "aeronautical engineering"},
		Answer:   "Dr. Bino Prince Raja D. is listed as HOD for Aeronautical Engineering in GAT faculty/NIRF data. (GAT)",
	},
	{
		Keywords: []string{"ai & ds", "ai ds", "artificial intelligence & data science", "ai and ds"},
		Answer:   "Dr. Girish Rao Salanke N S is the HOD of the Artificial Intelligence & Data Science (AI & DS) UG program. (GAT)",
	},
	{
		Keywords: []string{"aiml", "ai ml", "ai & ml", "artificial intelligence & machine learning"},
		Answer:   "Dr. Chandramma R. is the HOD of the Artificial Intelligence & Machine Learning (AIML) UG program / CSE AI & ML. (GAT)",
	},
	{
		Keywords: []string{"math", "mathematics"},
		Answer:   "Dr. Rupa K. is the HOD of the Department of Mathematics. (GAT)",
	},
	{
		Keywords: []string{"chemistry"},
		Answer:   "Dr. Remya P. Narayanan is the HOD of the Department of Chemistry. (GAT)",
	},
	{
		Keywords: []string{"physics"},
		Answer:   "Dr. N. V. Raju is the HOD of the Department of Physics. (GAT)",
	},
	{
		Keywords: []string{"mba", "management", "management studies"},
		Answer:   "Dr. Sanjeev Kumar Thalari is the HOD of Management Studies (MBA). (GAT)",
	},
}
