package deviation

// Store-internal field names carried by the deviations list. The legacy
// schema names stay on the wire; only states were renamed.
const (
	FieldID        = "ID"
	FieldTitle     = "Title"
	FieldPlate     = "Placa"
	FieldEnteredAt = "Data_Hora_Entrada"
	FieldReason    = "Motivo"
	FieldRelease   = "Previsao_Liberacao"
	FieldNote      = "Observacoes"
	FieldStatus    = "Status"
	FieldCreatedAt = "Criado"

	FieldFilledBy     = "Preenchido_por"
	FieldFilledAt     = "Data_Preenchimento"
	FieldDecidedBy    = "Aprovado_por"
	FieldDecidedAt    = "Data_Aprovacao"
	FieldRejectReason = "Reprova"
)

// EditableFields are the row fields a session may stage edits for.
var EditableFields = map[string]struct{}{
	FieldReason:  {},
	FieldRelease: {},
	FieldNote:    {},
}
