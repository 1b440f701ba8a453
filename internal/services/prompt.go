package services

import (
	"strings"

	"avatar-relay/internal/models"
)

// DefaultLanguage is used when a request names no language or an unknown one.
const DefaultLanguage = "en"

// TranslationMarker is the phrase ("please translate the following into")
// the front-end prefixes translation requests with.
const TranslationMarker = "请将以下内容翻译成"

const translatorPrompt = "You are a professional translator. Translate the following text accurately. Only provide the translated text without any explanations or additional content."

// LanguagePrompts maps a language code to its conversation-practice system prompt.
var LanguagePrompts = map[string]string{
	"en": "You are an English speaking practice assistant. Your task is to engage in a conversation with the user, helping them practice their English. The user will ask a question in English, and you should respond in English. Please be friendly, patient, and encouraging. Do not use any emojis in your responses.",
	"zh": "你是中文对话练习助手。你的任务是与用户进行对话，帮助他们练习中文。用户会用中文提问，你应该用中文回答。请保持友好、耐心和鼓励的态度。不要使用任何表情符号。",
	"ja": "あなたは日本語会話練習アシスタントです。ユーザーとの会話に参加し、日本語の練習をサポートすることがあなたのタスクです。ユーザーは日本語で質問し、あなたも日本語で答えてください。フレンドリーで、忍耐強く、励ましの態度を保ってください。絵文字は使用しないでください。",
	"ko": "귀하는 한국어 대화 연습 어시스턴트입니다. 사용자와의 대화에 참여하여 한국어 연습을 도와주는 것이 귀하의 임무입니다. 사용자가 한국어로 질문하면 귀하도 한국어로 답변해야 합니다. 친근하고, 인내심을 갖고, 격려하는 태도를 유지해 주세요. 이모티콘은 사용하지 마세요.",
	"fr": "Vous êtes un assistant de pratique de conversation en français. Votre tâche est d'engager une conversation avec l'utilisateur pour l'aider à pratiquer le français. L'utilisateur posera des questions en français et vous devrez répondre en français. Soyez sympathique, patient et encourageant. N'utilisez pas d'emojis.",
	"de": "Sie sind ein Deutsch-Konversationsübungsassistent. Ihre Aufgabe ist es, sich mit dem Benutzer zu unterhalten und ihm beim Üben der deutschen Sprache zu helfen. Der Benutzer wird Fragen auf Deutsch stellen, und Sie sollten auf Deutsch antworten. Seien Sie freundlich, geduldig und ermutigend. Verwenden Sie keine Emojis.",
	"es": "Eres un asistente de práctica de conversación en español. Tu tarea es entablar una conversación con el usuario para ayudarle a practicar el español. El usuario hará preguntas en español y tú deberás responder en español. Sé amable, paciente y alentador. No utilices ningún emoji.",
}

// SystemPrompt returns the prompt for lang, falling back to English.
func SystemPrompt(lang string) string {
	if p, ok := LanguagePrompts[lang]; ok {
		return p
	}
	return LanguagePrompts[DefaultLanguage]
}

// IntentDetector classifies a user message as a translation request.
type IntentDetector interface {
	IsTranslation(message string) bool
}

// MarkerDetector flags messages containing a fixed marker phrase.
type MarkerDetector struct {
	Marker string
}

func NewMarkerDetector() MarkerDetector {
	return MarkerDetector{Marker: TranslationMarker}
}

func (d MarkerDetector) IsTranslation(message string) bool {
	return d.Marker != "" && strings.Contains(message, d.Marker)
}

// ComposeTranslation builds the provider messages for a translation request.
// History is not consulted.
func ComposeTranslation(message string) []models.ChatMessage {
	return []models.ChatMessage{
		{Role: models.RoleSystem, Content: translatorPrompt},
		{Role: models.RoleUser, Content: message},
	}
}

// ComposeConversation builds system prompt + history + user message.
func ComposeConversation(lang string, history []models.ChatMessage, message string) []models.ChatMessage {
	msgs := make([]models.ChatMessage, 0, len(history)+2)
	msgs = append(msgs, models.ChatMessage{Role: models.RoleSystem, Content: SystemPrompt(lang)})
	msgs = append(msgs, history...)
	msgs = append(msgs, models.ChatMessage{Role: models.RoleUser, Content: message})
	return msgs
}
