package resolver

import (
	"context"
	"math/rand"
	"strings"

	"sitechat/internal/model/chat"
)

// rule binds a keyword set to one or more reply templates. Templates may use
// {name} and {contact} placeholders; {contact} expands to the contact-type
// phrase ("email" / "phone number").
type rule struct {
	name      string
	keywords  []string
	templates []string
}

// contextRules is evaluated in order; the first rule whose keyword matches
// the lower-cased message wins.
var contextRules = []rule{
	{
		name:     "greeting",
		keywords: []string{"hello", "hi", "hey", "good morning", "good afternoon"},
		templates: []string{
			"Hello {name}! Welcome to my personal blog and portfolio. I'm here to help answer any questions you might have.",
			"Hi there {name}! Great to connect with you. How can I assist you today?",
			"Hey {name}! Thanks for visiting my site. What brings you here today?",
			"Good to meet you, {name}! I'm here to help. What would you like to know about my work or services?",
		},
	},
	{
		// Phrase-level keywords: a bare "about" would swallow messages
		// like "what about pricing?" that belong to later rules.
		name:     "about",
		keywords: []string{"who are you", "about you", "about yourself", "about your", "company"},
		templates: []string{
			"Hi {name}! I'm a passionate developer and tech enthusiast. This is my personal blog and showcase site where I share my projects, insights, and expertise. I'll get back to you via your {contact} with more details about my background and experience.",
		},
	},
	{
		name:     "services",
		keywords: []string{"service", "what do you do", "offerings", "solutions"},
		templates: []string{
			"Hi {name}! I offer freelance development services including web applications, mobile apps, backend development, and technical consulting. As an individual developer, I provide personalized attention to each project. I'll reach out via your {contact} to discuss how I can help with your specific needs.",
		},
	},
	{
		name:     "technical",
		keywords: []string{"technical", "technology", "development", "programming", "coding"},
		templates: []string{
			"Great technical question, {name}! I work with cutting-edge technologies including modern web frameworks, cloud platforms, AI/ML, and mobile development. You can check out my blog posts and projects on this site to see my technical expertise in action. I'll provide you with detailed insights via your {contact}.",
		},
	},
	{
		name:     "pricing",
		keywords: []string{"price", "cost", "rate", "budget", "quote"},
		templates: []string{
			"{name}, my rates depend on the project scope and complexity. As a freelance developer, I offer competitive pricing and flexible arrangements. I'll contact you via your {contact} with a personalized quote based on your requirements.",
		},
	},
	{
		name:     "help",
		keywords: []string{"help", "support", "problem", "issue", "assistance"},
		templates: []string{
			"I'm here to help, {name}! Whether it's technical guidance, project consultation, or general inquiries about my work, I'm ready to assist. I'll reach out to you via your {contact} to provide the support you need.",
		},
	},
	{
		name:     "contact",
		keywords: []string{"contact", "call", "meeting", "discuss", "talk"},
		templates: []string{
			"Absolutely, {name}! I'd be happy to connect with you. I have your {contact} and will get in touch with you shortly to schedule a convenient time to discuss your needs or interests.",
		},
	},
	{
		name:     "project",
		keywords: []string{"project", "work", "collaboration", "partnership"},
		templates: []string{
			"That sounds interesting, {name}! I love working on exciting projects and collaborating with like-minded individuals. I'll contact you via your {contact} to learn more about your project requirements and how we can work together.",
		},
	},
	{
		name:     "timeline",
		keywords: []string{"time", "when", "deadline", "delivery", "schedule"},
		templates: []string{
			"Good question, {name}! Project timelines vary based on scope and complexity. As a solo developer, I pride myself on clear communication and realistic timelines. I'll discuss specific timeframes and my current availability with you via your {contact}.",
		},
	},
	{
		name:     "portfolio",
		keywords: []string{"portfolio", "experience", "past work", "examples", "case studies"},
		templates: []string{
			"{name}, you can explore my portfolio and projects right here on this site! I've documented my work, technical articles, and case studies in my blog. I'd also love to share specific examples relevant to your interests via your {contact}.",
		},
	},
	{
		name:     "thanks",
		keywords: []string{"thank", "thanks", "appreciate"},
		templates: []string{
			"You're very welcome, {name}! It's my pleasure to help. Feel free to browse my blog posts and projects while you're here. I'll also follow up with you via your {contact} if you have any more questions.",
		},
	},
	{
		name:     "complaint",
		keywords: []string{"complaint", "concern", "worried", "disappointed"},
		templates: []string{
			"I understand your concern, {name}, and I apologize for any inconvenience. Your feedback is important to me as I strive to provide the best service possible. I'll prioritize addressing this matter and contact you via your {contact} to resolve it promptly.",
		},
	},
	{
		name:     "location",
		keywords: []string{"location", "office", "where", "address"},
		templates: []string{
			"{name}, I work remotely which allows me to serve clients globally while keeping costs competitive. This also means I can be flexible with timing and communication methods. I'll share more details about how I work and collaborate via your {contact}.",
		},
	},
	{
		name:     "stack",
		keywords: []string{"react", "node", "python", "java", "aws", "cloud"},
		templates: []string{
			"Great question about my tech stack, {name}! I work with modern technologies including React, Node.js, Python, AWS, and many other cutting-edge tools. You can see examples of my work with these technologies in my blog posts. I'll provide detailed information about my capabilities via your {contact}.",
		},
	},
	{
		name:     "urgency",
		keywords: []string{"urgent", "emergency", "asap", "immediately"},
		templates: []string{
			"I understand this is urgent, {name}! As a solo developer, I'll prioritize your request. I'll contact you via your {contact} as soon as possible to address your urgent needs.",
		},
	},
}

var enthusiasmKeywords = []string{"excited", "interested", "looking forward"}

const (
	detailedTemplate = "Thank you for the detailed message, {name}! I can see you've put thought into your inquiry. I'll review your message carefully and provide a comprehensive response via your {contact}."
	questionTemplate = "That's a great question, {name}! I'll provide you with a detailed answer. Expect to hear from me via your {contact} soon."
	excitedTemplate  = "That's wonderful to hear, {name}! I'm equally excited to connect with you. I'll contact you via your {contact} to discuss the next steps."
)

var genericTemplates = []string{
	"Thanks for reaching out, {name}! I've received your message and will get back to you via your {contact} with a detailed response.",
	"Hi {name}! Your message is important to me. I'll contact you via your {contact} to help you further.",
	"Hello {name}! I appreciate you taking the time to visit my site and connect with me. I'll follow up with you using your {contact} to discuss how I can assist.",
	"{name}, thank you for your interest in my work! I'll reach out to you via your {contact} to provide more information and answer any questions.",
	"Great to hear from you, {name}! I'm reviewing your message and will contact you via your {contact} to provide the assistance you need.",
	"{name}, I value your inquiry! I'll get in touch with you via your {contact} to discuss your requirements in detail.",
}

// Contextual generates a keyword-matched reply. It only engages when the
// visitor's name is known; with a known name it always produces output, so
// later strategies are reached only for anonymous visitors.
func Contextual(rng *rand.Rand) Strategy {
	return func(_ context.Context, req Request) (string, bool) {
		if req.Visitor.Name == "" || req.Message == "" {
			return "", false
		}

		message := strings.ToLower(req.Message)
		for _, r := range contextRules {
			if r.matches(message) {
				return render(pick(rng, r.templates), req.Visitor), true
			}
		}

		switch {
		case len(req.Message) > 100:
			return render(detailedTemplate, req.Visitor), true
		case strings.Contains(message, "?"):
			return render(questionTemplate, req.Visitor), true
		case containsAny(message, enthusiasmKeywords):
			return render(excitedTemplate, req.Visitor), true
		}

		return render(pick(rng, genericTemplates), req.Visitor), true
	}
}

func (r rule) matches(message string) bool {
	return containsAny(message, r.keywords)
}

func containsAny(message string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(message, keyword) {
			return true
		}
	}
	return false
}

func pick(rng *rand.Rand, templates []string) string {
	if len(templates) == 1 {
		return templates[0]
	}
	return templates[rng.Intn(len(templates))]
}

func render(template string, visitor chat.VisitorInfo) string {
	replacer := strings.NewReplacer(
		"{name}", visitor.Name,
		"{contact}", visitor.ContactType.Phrase(),
	)
	return replacer.Replace(template)
}

// RuleTemplates exposes the rendered template set for a named rule. Tests use
// it to assert a reply was drawn from the expected pool.
func RuleTemplates(ruleName string, visitor chat.VisitorInfo) []string {
	for _, r := range contextRules {
		if r.name != ruleName {
			continue
		}
		out := make([]string, len(r.templates))
		for i, tpl := range r.templates {
			out[i] = render(tpl, visitor)
		}
		return out
	}
	return nil
}
