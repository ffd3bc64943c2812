package ai

import "strings"

type intent string

const (
	intentGreeting intent = "greeting"
	intentThanks   intent = "thanks"
	intentGoodbye  intent = "goodbye"
	intentHelp     intent = "help"
)

const notUnderstood = "Je n'ai pas compris votre demande. Pouvez-vous reformuler ?"

// intents are checked in this order; the first keyword hit wins.
var intentKeywords = []struct {
	intent   intent
	keywords []string
}{
	{intentGreeting, []string{"bonjour", "salut", "coucou", "hey", "hello"}},
	{intentThanks, []string{"merci", "remercie", "super", "parfait", "génial"}},
	{intentGoodbye, []string{"au revoir", "à plus", "bye", "a+", "ciao"}},
	{intentHelp, []string{"aide", "aider", "peux-tu m'aider", "comment faire"}},
}

var intentResponses = map[intent][]string{
	intentGreeting: {
		"Bonjour ! Comment puis-je vous aider aujourd'hui ?",
		"Salut ! En quoi puis-je vous assister ?",
		"Bienvenue ! Comment puis-je vous être utile ?",
	},
	intentThanks: {
		"Je vous en prie ! Avez-vous d'autres questions ?",
		"Avec plaisir ! N'hésitez pas si vous avez besoin d'aide.",
		"De rien ! Comment puis-je vous aider davantage ?",
	},
	intentGoodbye: {
		"Au revoir ! Passez une excellente journée !",
		"À bientôt ! N'hésitez pas à revenir si vous avez des questions.",
		"Merci de votre visite ! À la prochaine !",
	},
	intentHelp: {
		"Je peux vous aider à trouver des produits, suivre vos commandes, ou répondre à vos questions sur nos services.",
		"Je peux vous assister pour la recherche de produits, le suivi de commande, ou toute question sur notre site.",
		"Comment puis-je vous aider ? Je peux vous guider dans vos achats ou répondre à vos questions.",
	},
}

var productAnswers = []struct {
	keyword string
	answer  string
}{
	{"ordinateur", "Nous avons plusieurs ordinateurs portables et de bureau disponibles. Souhaitez-vous des conseils pour choisir ?"},
	{"téléphone", "Nous proposons les dernières marques de smartphones. Avez-vous une marque ou un modèle précis en tête ?"},
	{"livre", "Notre sélection de livres couvre divers genres. Quel type de livre recherchez-vous ?"},
}

var orderKeywords = []string{"commande", "colis", "livraison", "suivi"}

const orderAnswer = "Pour vérifier le statut de votre commande, veuillez vous connecter à votre compte ou utiliser le numéro de suivi reçu par email."

var questionAnswers = []string{
	"Je ne suis pas certain de pouvoir répondre à cette question. Voulez-vous que je vous mette en contact avec notre service client ?",
	"C'est une excellente question. Pour une réponse précise, je vous recommande de contacter notre service client.",
	"Je ne dispose pas de cette information pour le moment. Souhaitez-vous que je recherche cela pour vous ?",
}

var defaultAnswers = []string{
	"Je peux vous aider à trouver des produits, vérifier le statut d'une commande, ou répondre à vos questions sur nos services.",
	"Je suis là pour vous aider avec vos achats. Que souhaitez-vous savoir ?",
	"Je peux vous assister pour la recherche de produits ou répondre à vos questions. Comment puis-je vous aider ?",
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func detectIntent(question string) (intent, bool) {
	for _, ik := range intentKeywords {
		if containsAny(question, ik.keywords) {
			return ik.intent, true
		}
	}
	return "", false
}

// answer picks the chatbot reply; pick(n) chooses among n canned variants.
func answer(question string, pick func(n int) int) string {
	q := strings.ToLower(strings.TrimSpace(question))
	if q == "" {
		return notUnderstood
	}
	if in, ok := detectIntent(q); ok {
		options := intentResponses[in]
		return options[pick(len(options))]
	}
	for _, pa := range productAnswers {
		if strings.Contains(q, pa.keyword) {
			return pa.answer
		}
	}
	if containsAny(q, orderKeywords) {
		return orderAnswer
	}
	if strings.Contains(q, "?") {
		return questionAnswers[pick(len(questionAnswers))]
	}
	return defaultAnswers[pick(len(defaultAnswers))]
}
