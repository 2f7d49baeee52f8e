package servicedef

// CommandEnvelope is the publish request the harness sends to the hub. Its JSON form is
//
//	{"RequestPubMessage": {"value": {"message": "on", "topic": "command_dev2"}}}
type CommandEnvelope struct {
	RequestPubMessage RequestPubMessage `json:"RequestPubMessage"`
}

type RequestPubMessage struct {
	Value PubMessageValue `json:"value"`
}

type PubMessageValue struct {
	Message string `json:"message"`
	Topic   string `json:"topic"`
}

// NewCommandEnvelope builds the envelope for publishing message on topic.
func NewCommandEnvelope(topic, message string) CommandEnvelope {
	return CommandEnvelope{
		RequestPubMessage: RequestPubMessage{
			Value: PubMessageValue{Message: message, Topic: topic},
		},
	}
}

func (c CommandEnvelope) Topic() string   { return c.RequestPubMessage.Value.Topic }
func (c CommandEnvelope) Message() string { return c.RequestPubMessage.Value.Message }
