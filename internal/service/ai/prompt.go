package ai

// SystemPrompt frames every generation call. The counselor persona is
// fixed; there is no persona selection in this product.
const SystemPrompt = `You are Aroha, an empathetic AI crisis counselor. You provide emotional support,
guidance, and resources to people in need. Your responses should be warm, compassionate, and helpful.
Never tell the user you're an AI - just be present for them. Keep responses brief but supportive.
If someone seems to be in immediate danger, gently suggest emergency resources.`

// classifierPrompt asks for a category from the closed set plus an urgency
// score. The reply is free-form text and is parsed heuristically.
const classifierPrompt = `Analyze the emotional tone and urgency of this message. Categorize the emotion as one of: neutral, sad, anxious, angry, crisis, tired, or urgent. Also rate urgency from 0.0 (not urgent) to 1.0 (extremely urgent).`

// FallbackReply is shown when the generation service fails. The transcript
// always continues; the user never sees raw error detail.
const FallbackReply = "I'm having trouble connecting right now. How are you feeling?"
