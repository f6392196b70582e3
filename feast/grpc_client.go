package feast

import (
	"context"
	"fmt"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"

	"github.com/rushteam/swipekit/core"
)

// GrpcClient 是基于官方 Feast Go SDK 的 gRPC 客户端实现。
type GrpcClient struct {
	client  *feastsdk.GrpcClient
	Project string
}

var _ Client = (*GrpcClient)(nil)

// NewGrpcClient 连接 Feast Feature Server。port 为 0 时使用默认端口 6565。
func NewGrpcClient(host string, port int, project string) (*GrpcClient, error) {
	if port == 0 {
		port = 6565
	}
	client, err := feastsdk.NewGrpcClient(host, port)
	if err != nil {
		return nil, core.WrapDomainError("feast", core.ErrCodeDependencyFailure, "连接 feature server 失败", err)
	}
	return &GrpcClient{client: client, Project: project}, nil
}

// GetOnlineFeatures 获取在线特征。
func (c *GrpcClient) GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error) {
	if len(req.Features) == 0 {
		return nil, core.NewDomainError("feast", core.ErrCodeInvalidInput, "特征列表为空")
	}
	if len(req.EntityRows) == 0 {
		return nil, core.NewDomainError("feast", core.ErrCodeInvalidInput, "实体行为空")
	}
	project := req.Project
	if project == "" {
		project = c.Project
	}

	entityRows := make([]feastsdk.Row, len(req.EntityRows))
	for i, row := range req.EntityRows {
		entityRow := make(feastsdk.Row, len(row))
		for k, v := range row {
			entityRow[k] = toSDKValue(v)
		}
		entityRows[i] = entityRow
	}

	sdkResp, err := c.client.GetOnlineFeatures(ctx, &feastsdk.OnlineFeaturesRequest{
		Features: req.Features,
		Entities: entityRows,
		Project:  project,
	})
	if err != nil {
		return nil, core.WrapDomainError("feast", core.ErrCodeDependencyFailure, "获取在线特征失败", err)
	}

	rows := sdkResp.Rows()
	if len(rows) != len(req.EntityRows) {
		return nil, core.NewDomainError("feast", core.ErrCodeDependencyFailure,
			fmt.Sprintf("响应行数不匹配: 期望 %d, 实际 %d", len(req.EntityRows), len(rows)))
	}

	vectors := make([]FeatureVector, len(rows))
	for i, row := range rows {
		values := make(map[string]any, len(req.Features))
		for _, name := range req.Features {
			if val, ok := row[name]; ok {
				if converted := fromSDKValue(val); converted != nil {
					values[name] = converted
				}
			}
		}
		vectors[i] = FeatureVector{Values: values, EntityRow: req.EntityRows[i]}
	}
	return &GetOnlineFeaturesResponse{FeatureVectors: vectors}, nil
}

// Close 释放客户端。SDK 的连接由 gRPC 库托管，无显式关闭入口。
func (c *GrpcClient) Close() error {
	c.client = nil
	return nil
}

func toSDKValue(v any) *feasttypes.Value {
	switch val := v.(type) {
	case string:
		return feastsdk.StrVal(val)
	case int:
		return feastsdk.Int64Val(int64(val))
	case int64:
		return feastsdk.Int64Val(val)
	case int32:
		return feastsdk.Int64Val(int64(val))
	case float64:
		return feastsdk.DoubleVal(val)
	case float32:
		return feastsdk.FloatVal(val)
	case bool:
		return feastsdk.BoolVal(val)
	case []byte:
		return feastsdk.BytesVal(val)
	default:
		return feastsdk.StrVal(fmt.Sprintf("%v", val))
	}
}

func fromSDKValue(val *feasttypes.Value) any {
	if val == nil {
		return nil
	}
	switch x := val.GetVal().(type) {
	case *feasttypes.Value_StringVal:
		return x.StringVal
	case *feasttypes.Value_BytesVal:
		return string(x.BytesVal)
	case *feasttypes.Value_Int32Val:
		return float64(x.Int32Val)
	case *feasttypes.Value_Int64Val:
		return float64(x.Int64Val)
	case *feasttypes.Value_DoubleVal:
		return x.DoubleVal
	case *feasttypes.Value_FloatVal:
		return float64(x.FloatVal)
	case *feasttypes.Value_BoolVal:
		return x.BoolVal
	default:
		return nil
	}
}
