// Package survey holds the fixed 50-item feedback instrument. The catalog is
// static data: items are never added or removed at runtime, and the analysis
// pipeline validates model output against the scales defined here.
package survey

import (
	"fmt"
	"strings"
)

// Item is one survey instrument item. Anchor items are the ones the live
// interview explicitly solicits a rating for; everything else is only ever
// inferred from context. ReverseCoded marks items where agreement indicates a
// negative experience.
type Item struct {
	ID           int
	Text         string
	Category     string
	Scale        []string
	Anchor       bool
	ReverseCoded bool
}

var (
	scaleAgreement = []string{"strongly_agree", "agree", "disagree", "strongly_disagree"}
	scaleYesNo     = []string{"yes", "no"}
	scaleFrequency = []string{"often", "sometimes", "rarely", "never"}
	scaleAlways    = []string{"always", "often", "sometimes", "never"}
	scaleAmount    = []string{"a_lot", "sometimes", "rarely", "never"}
)

// Items is the full instrument in presentation order.
var Items = []Item{
	// People — Peers
	{ID: 1, Text: "Students in this summer program treat each other with respect", Category: "People — Peers", Scale: scaleAgreement},
	{ID: 2, Text: "I worry about people hurting each other during the summer program", Category: "People — Peers", Scale: scaleAgreement, ReverseCoded: true},
	{ID: 3, Text: "The students in the summer program care about me", Category: "People — Peers", Scale: scaleAgreement},
	{ID: 4, Text: "I have friends at my summer program", Category: "People — Peers", Scale: scaleAgreement, Anchor: true},
	{ID: 5, Text: "I feel connected to others at this summer program", Category: "People — Peers", Scale: scaleAgreement},
	{ID: 6, Text: "I feel safe talking with students at my summer program", Category: "People — Peers", Scale: scaleAgreement},
	{ID: 7, Text: "The people at my summer program understand me as a person", Category: "People — Peers", Scale: scaleAgreement},

	// People — Adults
	{ID: 8, Text: "Adults in this summer program treat all students with respect", Category: "People — Adults", Scale: scaleAgreement},
	{ID: 9, Text: "It is easy to talk with teachers and other adults at this summer program", Category: "People — Adults", Scale: scaleAgreement},
	{ID: 10, Text: "There is at least one teacher or other adult in my summer program that really cares about me", Category: "People — Adults", Scale: scaleAgreement, Anchor: true},

	// Program — Climate & Engagement
	{ID: 11, Text: "I feel safe at my summer program", Category: "Program — Climate & Engagement", Scale: scaleAgreement, Anchor: true},
	{ID: 12, Text: "I feel welcome at my summer program", Category: "Program — Climate & Engagement", Scale: scaleAgreement, Anchor: true},
	{ID: 13, Text: "I like going to my summer program", Category: "Program — Climate & Engagement", Scale: scaleAgreement},
	{ID: 14, Text: "I am excited to come to this summer program", Category: "Program — Climate & Engagement", Scale: scaleAgreement},
	{ID: 15, Text: "I like the activities we do in my summer program", Category: "Program — Climate & Engagement", Scale: scaleAgreement, Anchor: true},
	{ID: 16, Text: "I have opportunities to participate in activities that align with my interests", Category: "Program — Climate & Engagement", Scale: scaleAgreement},
	{ID: 17, Text: "I have lots of choices of activities to do in this summer program", Category: "Program — Climate & Engagement", Scale: scaleAgreement},
	{ID: 18, Text: "At my summer program, I have opportunities to create activities, or plan events/activities", Category: "Program — Climate & Engagement", Scale: scaleAgreement},
	{ID: 19, Text: "Adults give me the chance to share my ideas and opinions in the program", Category: "Program — Climate & Engagement", Scale: scaleAgreement},
	{ID: 20, Text: "I have enjoyed reading during the summer program", Category: "Program — Climate & Engagement", Scale: scaleAgreement},

	// Social-Emotional & Cultural
	{ID: 21, Text: "At this summer program, students talk about the importance of understanding their own feelings and the feelings of others", Category: "Social-Emotional & Cultural", Scale: scaleAgreement},
	{ID: 22, Text: "At this summer program, students work on listening to others to understand what they are trying to say", Category: "Social-Emotional & Cultural", Scale: scaleAgreement},
	{ID: 23, Text: "In this program, I learn more about different cultures, personal histories, and traditions", Category: "Social-Emotional & Cultural", Scale: scaleAgreement},
	{ID: 24, Text: "My culture, personal history, and family traditions are celebrated in this program", Category: "Social-Emotional & Cultural", Scale: scaleAgreement, Anchor: true},
	{ID: 25, Text: "I have been given opportunities to explore careers/jobs in my summer program", Category: "Social-Emotional & Cultural", Scale: scaleAgreement},

	// Belonging
	{ID: 26, Text: "Do you feel like you belong in your summer program?", Category: "Belonging", Scale: scaleYesNo, Anchor: true},

	// Career Connection
	{ID: 27, Text: "How often do you connect what you are learning in the program to potential career opportunities?", Category: "Career Connection", Scale: scaleFrequency},

	// Field Trips & Outdoor Activities
	{ID: 28, Text: "How many times have you visited another location (e.g., field trip, museum, university, aquarium, library, park) as part of your program?", Category: "Field Trips & Outdoor Activities", Scale: scaleFrequency},
	{ID: 29, Text: "How many times have you spent time doing activities outside (e.g., outdoor learning, science, water activities, hiking, outdoor field trips, camping) during your summer program?", Category: "Field Trips & Outdoor Activities", Scale: scaleFrequency},

	// Participation
	{ID: 30, Text: "I am able to participate in all the activities that are offered in my summer program", Category: "Participation", Scale: scaleAlways},

	// Representation & Diversity
	{ID: 31, Text: "Adults in my summer program respect people from different backgrounds (for example, people of different races, cultures, religions, genders, sexual orientation, or people of different abilities)", Category: "Representation & Diversity", Scale: scaleAgreement},
	{ID: 32, Text: "There are students in this program who are like me and my family", Category: "Representation & Diversity", Scale: scaleAgreement},
	{ID: 33, Text: "There are adults at my summer program who are like me and my family", Category: "Representation & Diversity", Scale: scaleAgreement},

	// Representation — Materials
	{ID: 34, Text: "How often did materials have pictures or stories of people who are like you and your family?", Category: "Representation — Materials", Scale: scaleAmount},

	// Reading & Writing
	{ID: 35, Text: "This program has helped me become a better reader and writer", Category: "Reading & Writing", Scale: scaleAgreement},

	// Self-Concept & Growth
	{ID: 36, Text: "The summer program has helped me feel good about myself", Category: "Self-Concept & Growth", Scale: scaleAgreement},
	{ID: 37, Text: "The summer program has helped me try new things", Category: "Self-Concept & Growth", Scale: scaleAgreement, Anchor: true},
	{ID: 38, Text: "I feel more confident in myself while I'm at this program", Category: "Self-Concept & Growth", Scale: scaleAgreement},
	{ID: 39, Text: "This program helps me stay active and healthy", Category: "Self-Concept & Growth", Scale: scaleAgreement},
	{ID: 40, Text: "This program helps me get along with other students", Category: "Self-Concept & Growth", Scale: scaleAgreement},
	{ID: 41, Text: "This program has helped me understand what I read better", Category: "Self-Concept & Growth", Scale: scaleAgreement, Anchor: true},
	{ID: 42, Text: "This program has helped me share my ideas more clearly", Category: "Self-Concept & Growth", Scale: scaleAgreement},

	// Personal Skills & Resilience
	{ID: 43, Text: "I ask for help when things are not going well", Category: "Personal Skills & Resilience", Scale: scaleAgreement},
	{ID: 44, Text: "I keep trying even when things get hard", Category: "Personal Skills & Resilience", Scale: scaleAgreement, Anchor: true},
	{ID: 45, Text: "I am able to control my feelings when I need to", Category: "Personal Skills & Resilience", Scale: scaleAgreement},
	{ID: 46, Text: "I am able to connect what we are learning in class to things happening outside of school", Category: "Personal Skills & Resilience", Scale: scaleAgreement},
	{ID: 47, Text: "I believe I can make a contribution to my community", Category: "Personal Skills & Resilience", Scale: scaleAgreement},
	{ID: 48, Text: "I feel connected with my community", Category: "Personal Skills & Resilience", Scale: scaleAgreement},
	{ID: 49, Text: "I can help solve problems and deal with conflicts", Category: "Personal Skills & Resilience", Scale: scaleAgreement},
	{ID: 50, Text: "I know how to be creative (for example, use my imagination or improve on ideas/processes)", Category: "Personal Skills & Resilience", Scale: scaleAgreement},
}

// PromptText renders the catalog as the line-oriented block included in the
// analysis prompt, one item per line:
//
//	{id}. [{category}] {text} (Scale: {a | b | c})
func PromptText() string {
	lines := make([]string, len(Items))
	for i, item := range Items {
		lines[i] = fmt.Sprintf("%d. [%s] %s (Scale: %s)", item.ID, item.Category, item.Text, strings.Join(item.Scale, " | "))
	}
	return strings.Join(lines, "\n")
}

// Anchors returns the anchor items in catalog order.
func Anchors() []Item {
	var anchors []Item
	for _, item := range Items {
		if item.Anchor {
			anchors = append(anchors, item)
		}
	}
	return anchors
}
