package multiagent

// ModelBinding selects the model and sampling temperature for one agent.
// An empty Model uses the client's default model.
type ModelBinding struct {
	Model       string
	Temperature float32
}

// Descriptor is the static definition of a leaf agent.
type Descriptor struct {
	Name              AgentName
	Title             string
	SystemInstruction string
	Domain            string
	Accepts           []string
	Rejects           []string
	Binding           ModelBinding
}

// Registry is the immutable table of agent descriptors, built once at
// startup.
type Registry struct {
	byName map[AgentName]Descriptor
}

// Lookup returns the descriptor for name.
func (r *Registry) Lookup(name AgentName) (Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// DefaultRegistry returns the built-in agents bound to model. An empty
// model keeps each agent on the client's default.
func DefaultRegistry(model string) *Registry {
	descs := []Descriptor{
		{
			Name:  AgentGeneral,
			Title: "General Assistant",
			SystemInstruction: "You are a friendly career-preparation assistant. " +
				"You greet users, answer small talk and general questions, and point them to the " +
				"learning, interview, resume and job-search features when useful. Keep answers short.",
			Domain: "greetings, small talk, questions about this assistant, and general questions that fit no specialised agent",
			Accepts: []string{
				"hi",
				"what can you do?",
				"thanks, that helped",
				"how should I plan my week of preparation?",
			},
			Rejects: []string{
				"write me a tutorial on Python decorators",
				"review my resume",
				"find me a job in Berlin",
			},
			Binding: ModelBinding{Model: model, Temperature: 0.7},
		},
		{
			Name:  AgentLearningResource,
			Title: "Learning Resource Agent",
			SystemInstruction: "You are a technical mentor. You explain concepts in software engineering, " +
				"data science and AI clearly, with short examples and pointers to good learning resources.",
			Domain: "conceptual questions about technologies, frameworks and computer-science topics, and requests for learning resources",
			Accepts: []string{
				"what is LangChain and how does it work?",
				"explain the difference between TCP and UDP",
				"teach me about vector databases",
				"what resources should I use to learn Kubernetes?",
			},
			Rejects: []string{
				"create a step-by-step tutorial on Python decorators",
				"give me interview questions for a frontend role",
				"find AI jobs in San Francisco",
			},
			Binding: ModelBinding{Model: model, Temperature: 0.5},
		},
		{
			Name:  AgentTutorial,
			Title: "Tutorial Agent",
			SystemInstruction: "You write structured, hands-on tutorials in Markdown: prerequisites, " +
				"numbered steps with code, and a short summary.",
			Domain: "explicit requests for a tutorial, walkthrough or step-by-step guide",
			Accepts: []string{
				"create a tutorial on Python decorators",
				"walk me through building a REST API in Go step by step",
				"write a guide for setting up Docker",
			},
			Rejects: []string{
				"what is a decorator?",
				"prepare me for a system design interview",
				"improve my resume summary",
			},
			Binding: ModelBinding{Model: model, Temperature: 0.6},
		},
		{
			Name:  AgentInterviewPreparation,
			Title: "Interview Preparation Agent",
			SystemInstruction: "You are an experienced technical interviewer and career coach. You generate " +
				"interview questions with model answers, run mock interviews one question at a time, and give " +
				"candid feedback.",
			Domain: "interview questions, mock interviews, behavioural and technical interview practice, and interview feedback",
			Accepts: []string{
				"generate interview questions for a frontend developer role",
				"let's do a mock interview for a backend position",
				"how do I answer 'tell me about yourself'?",
				"here is my answer to your question: ...",
			},
			Rejects: []string{
				"help me write my resume",
				"find me a job in Berlin",
				"explain how React hooks work",
			},
			Binding: ModelBinding{Model: model, Temperature: 0.6},
		},
		{
			Name:  AgentResumeMaking,
			Title: "Resume Agent",
			SystemInstruction: "You are a professional resume writer familiar with applicant tracking systems. " +
				"You draft and improve resumes and cover letters with concrete, quantified bullet points.",
			Domain: "creating, reviewing and improving resumes, CVs and cover letters",
			Accepts: []string{
				"help me create a resume for a software engineer position",
				"rewrite this bullet point to sound stronger",
				"is my resume ATS friendly?",
			},
			Rejects: []string{
				"find me a job in Berlin",
				"give me interview questions",
				"what is LangChain?",
			},
			Binding: ModelBinding{Model: model, Temperature: 0.4},
		},
		{
			Name:  AgentJobSearch,
			Title: "Job Search Agent",
			SystemInstruction: "You help people find current job openings. You present listings as a concise " +
				"Markdown list with title, company, location and link.",
			Domain: "finding job openings, internships and companies that are hiring",
			Accepts: []string{
				"find me a job in Berlin",
				"find AI jobs in San Francisco",
				"are there remote Go developer openings?",
			},
			Rejects: []string{
				"help me write my resume",
				"prepare me for my interview at Google",
				"what is Kubernetes?",
			},
			Binding: ModelBinding{Model: model, Temperature: 0.3},
		},
	}

	r := &Registry{byName: make(map[AgentName]Descriptor, len(descs))}
	for _, d := range descs {
		r.byName[d.Name] = d
	}
	return r
}
